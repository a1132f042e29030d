package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mvp-joe/symdex/internal/indexer/parsers"
)

// indexer implements the Indexer interface.
type indexer struct {
	config    *Config
	discovery *FileDiscovery
	processor Processor
	storage   Storage
	cache     *ResultCache
	progress  ProgressReporter
	logger    *zap.Logger
}

// New creates an indexer over config.RootDir that writes to store.
// progress and logger may be nil.
func New(config *Config, extractor *parsers.Extractor, store Storage, progress ProgressReporter, logger *zap.Logger) (Indexer, error) {
	rootDir, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", rootDir)
	}

	cfg := *config
	cfg.RootDir = rootDir

	discovery, err := NewFileDiscovery(rootDir, cfg.IncludePatterns, cfg.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}

	var cache *ResultCache
	if cfg.CacheSize > 0 {
		if cache, err = NewResultCache(cfg.CacheSize); err != nil {
			return nil, err
		}
	}

	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &indexer{
		config:    &cfg,
		discovery: discovery,
		processor: NewProcessor(ProcessorConfig{
			RootDir: rootDir,
			Workers: cfg.Workers,
			Force:   cfg.Force,
		}, extractor, cache, store, progress, logger),
		storage:  store,
		cache:    cache,
		progress: progress,
		logger:   logger,
	}, nil
}

// Index performs a full scan of the root directory.
func (idx *indexer) Index(ctx context.Context) (*ProcessingStats, error) {
	idx.progress.OnDiscoveryStart()
	files, err := idx.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	idx.progress.OnDiscoveryComplete(len(files))
	idx.logger.Info("discovered files", zap.String("root", idx.config.RootDir), zap.Int("files", len(files)))

	stats, err := idx.processor.ProcessFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	stats.FilesDiscovered = len(files)

	removed, err := idx.removeVanished(ctx, files)
	if err != nil {
		return nil, err
	}
	stats.FilesRemoved += removed

	idx.progress.OnComplete(stats)
	idx.logger.Info("index complete",
		zap.Int("files", stats.FilesProcessed),
		zap.Int("unchanged", stats.FilesUnchanged),
		zap.Int("items", stats.TotalItems),
		zap.Int("parse_errors", stats.ParseErrors),
		zap.Duration("elapsed", stats.ProcessingTime))
	return stats, nil
}

// IndexFiles processes only the given files.
func (idx *indexer) IndexFiles(ctx context.Context, files []string) (*ProcessingStats, error) {
	return idx.processor.ProcessFiles(ctx, files)
}

// removeVanished drops stored files that discovery no longer returns.
func (idx *indexer) removeVanished(ctx context.Context, discovered []string) (int, error) {
	stored, err := idx.storage.FileHashes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read stored file hashes: %w", err)
	}

	present := make(map[string]bool, len(discovered))
	for _, f := range discovered {
		present[relativePath(idx.config.RootDir, f)] = true
	}

	removed := 0
	for path := range stored {
		if present[path] {
			continue
		}
		if err := idx.storage.RemoveFile(ctx, path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

// Watch indexes once, then keeps the store current until ctx is done.
func (idx *indexer) Watch(ctx context.Context) error {
	if _, err := idx.Index(ctx); err != nil {
		return err
	}

	watcher, err := NewIndexerWatcher(idx, idx.config.RootDir)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if idx.config.DebounceTime > 0 {
		watcher.debounceTime = idx.config.DebounceTime
	}

	watcher.Start(ctx)
	<-ctx.Done()
	watcher.Stop()
	return nil
}

// Close releases the result cache. Storage is owned by the caller.
func (idx *indexer) Close() error {
	idx.cache.Close()
	return nil
}
