package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/symdex/internal/indexer"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// languagesCmd represents the languages command
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and their file extensions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		writeLanguages(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func writeLanguages(w io.Writer) {
	exts := indexer.LanguageExtensions()
	for _, lang := range extraction.AllLanguages {
		list := strings.Join(exts[lang], " ")
		if list == "" {
			list = "-"
		}
		fmt.Fprintf(w, "%-12s %s\n", lang, list)
	}
}
