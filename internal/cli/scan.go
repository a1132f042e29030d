package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/symdex/internal/config"
	"github.com/mvp-joe/symdex/internal/indexer"
	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/parsers"
	"github.com/mvp-joe/symdex/internal/storage"
)

// scanOptions holds the scan flags. Zero values defer to the config file.
type scanOptions struct {
	workers int
	dbPath  string
	format  string
	output  string
	watch   bool
	quiet   bool
	force   bool
}

var scanOpts scanOptions

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [DIR]",
	Short: "Extract every matching file under a directory",
	Long: `Scan discovers files under DIR (default: the working directory) using the
include and ignore globs from .symdex/config.yml, extracts them in parallel
and prints a summary.

With --db the items are written to a SQLite database; later scans against the
same database only re-extract files whose content changed.

Examples:
  # Summarize the current directory
  symdex scan

  # Keep a database current while editing
  symdex scan --db .symdex/items.db --watch

  # Write every item to a JSON snapshot
  symdex scan ./src --output items.json --quiet
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVarP(&scanOpts.workers, "workers", "j", 0, "Concurrent extractions (default from config)")
	scanCmd.Flags().StringVar(&scanOpts.dbPath, "db", "", "SQLite database to write items to")
	scanCmd.Flags().StringVarP(&scanOpts.format, "format", "f", "", "Summary format: json or text (default from config)")
	scanCmd.Flags().StringVarP(&scanOpts.output, "output", "o", "", "Write a JSON snapshot of all items to this file")
	scanCmd.Flags().BoolVarP(&scanOpts.watch, "watch", "w", false, "Watch for file changes and re-extract incrementally")
	scanCmd.Flags().BoolVarP(&scanOpts.quiet, "quiet", "q", false, "Disable progress bars and non-error output")
	scanCmd.Flags().BoolVar(&scanOpts.force, "force", false, "Re-extract files even when their content is unchanged")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootDir, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}

	return executeScan(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), rootDir, cfg, scanOpts)
}

// executeScan runs one scan, or a watch loop, over rootDir.
func executeScan(ctx context.Context, stdout, stderr io.Writer, rootDir string, cfg *config.Config, opts scanOptions) error {
	indexerConfig := cfg.ToIndexerConfig(rootDir)
	if opts.workers > 0 {
		indexerConfig.Workers = opts.workers
	}
	indexerConfig.Force = opts.force

	format := cfg.Output.Format
	if opts.format != "" {
		format = opts.format
	}
	format = strings.ToLower(format)
	if format != config.FormatJSON && format != config.FormatText {
		return fmt.Errorf("%w: %q", config.ErrInvalidFormat, format)
	}

	dbPath := cfg.DBPath(rootDir)
	if opts.dbPath != "" {
		dbPath = opts.dbPath
	}

	var (
		store   indexer.Storage
		records func(context.Context) ([]*storage.FileRecord, error)
	)
	if dbPath != "" {
		s, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		records = s.Reader().LoadFiles
	} else {
		mem := indexer.NewMemoryStorage()
		store = mem
		records = func(context.Context) ([]*storage.FileRecord, error) { return mem.Records(), nil }
	}

	var progress indexer.ProgressReporter = &indexer.NoOpProgressReporter{}
	if !opts.quiet {
		progress = NewCLIProgressReporter(stderr)
	}

	extractor := parsers.NewExtractor(cst.NewRegistry(), cfg.ExtractorOptions())
	idx, err := indexer.New(indexerConfig, extractor, store, progress, logger)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	if opts.watch {
		if !opts.quiet {
			fmt.Fprintf(stderr, "Watching %s (Ctrl+C to stop)\n", rootDir)
		}
		if err := idx.Watch(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch mode failed: %w", err)
		}
		return nil
	}

	stats, err := idx.Index(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("scan cancelled")
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if opts.output != "" {
		files, err := records(ctx)
		if err != nil {
			return fmt.Errorf("failed to collect items: %w", err)
		}
		if err := writeSnapshot(opts.output, rootDir, stats, files); err != nil {
			return err
		}
		logger.Debug("wrote snapshot", zap.String("file", opts.output), zap.Int("files", len(files)))
	}

	if format == config.FormatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintln(stdout, indexer.NewFormatter().FormatStats(stats))
	return nil
}

func writeSnapshot(path, rootDir string, stats *indexer.ProcessingStats, files []*storage.FileRecord) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	writer, err := indexer.NewAtomicWriter(filepath.Dir(abs))
	if err != nil {
		return err
	}
	defer writer.Close()

	return writer.WriteSnapshot(filepath.Base(abs), &indexer.Snapshot{
		GeneratedAt: time.Now().UTC(),
		Root:        rootDir,
		Stats:       stats,
		Files:       files,
	})
}
