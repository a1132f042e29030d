package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/symdex/internal/config"
	"github.com/mvp-joe/symdex/internal/indexer"
	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/parsers"
	"github.com/mvp-joe/symdex/internal/storage"
)

var (
	extractLang   string
	extractFormat string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Print the items declared in one or more files",
	Long: `Extract parses each file and prints the items it declares.

The language is detected from the file extension unless --lang is given.

Examples:
  # Outline a Rust file
  symdex extract src/lib.rs --format text

  # Treat a file without a known extension as Python
  symdex extract scripts/build --lang python
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtractCmd,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractLang, "lang", "l", "", "Language tag or alias, overrides extension detection")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "", "Output format: json or text (default from config)")
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := loadConfig(wd)
	if err != nil {
		return err
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format = extractFormat
	}

	extractor := parsers.NewExtractor(cst.NewRegistry(), cfg.ExtractorOptions())
	return executeExtract(cmd.OutOrStdout(), extractor, args, extractLang, format)
}

// executeExtract extracts each file in order and writes all results once
// every file succeeded.
func executeExtract(w io.Writer, extractor *parsers.Extractor, files []string, lang, format string) error {
	format = strings.ToLower(format)
	if format != config.FormatJSON && format != config.FormatText {
		return fmt.Errorf("%w: %q", config.ErrInvalidFormat, format)
	}

	var forced extraction.Language
	if lang != "" {
		l, err := extraction.ParseLanguage(lang)
		if err != nil {
			return err
		}
		forced = l
	}

	records := make([]*storage.FileRecord, 0, len(files))
	for _, path := range files {
		rec, err := extractOne(extractor, path, forced)
		if err != nil {
			return err
		}
		logger.Debug("extracted file", zap.String("file", path), zap.Int("items", len(rec.Items)))
		records = append(records, rec)
	}

	if format == config.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	formatter := indexer.NewFormatter()
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, formatter.FormatFile(rec))
	}
	return nil
}

func extractOne(extractor *parsers.Extractor, path string, lang extraction.Language) (*storage.FileRecord, error) {
	if lang == "" {
		detected, ok := indexer.DetectLanguage(path)
		if !ok {
			return nil, fmt.Errorf("cannot detect language of %s, pass --lang", path)
		}
		lang = detected
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	items, err := extractor.ExtractFile(path, src, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}
	if items == nil {
		items = []extraction.Item{}
	}

	return &storage.FileRecord{
		Path:        filepath.ToSlash(path),
		Language:    lang,
		Hash:        indexer.Checksum(src),
		Items:       items,
		ExtractedAt: time.Now().UTC(),
	}, nil
}
