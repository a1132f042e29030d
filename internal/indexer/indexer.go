package indexer

import (
	"context"
	"runtime"
	"time"
)

// Indexer extracts symbols from every matching file under a root directory.
type Indexer interface {
	// Index discovers all files and extracts those whose content changed
	// since the last run. Stored files that were not discovered are removed.
	Index(ctx context.Context) (*ProcessingStats, error)

	// IndexFiles extracts the given absolute paths only. Paths that no
	// longer exist are removed from storage.
	IndexFiles(ctx context.Context, files []string) (*ProcessingStats, error)

	// Watch indexes once, then reindexes changed files until ctx is
	// cancelled.
	Watch(ctx context.Context) error

	// Close releases all resources held by the indexer.
	Close() error
}

// Config contains configuration for the indexer.
type Config struct {
	// Root directory of the codebase to index
	RootDir string

	// Paths configuration
	IncludePatterns []string
	IgnorePatterns  []string

	// Pipeline configuration
	Workers      int
	CacheSize    int
	DebounceTime time.Duration
	Force        bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(rootDir string) *Config {
	return &Config{
		RootDir: rootDir,
		IgnorePatterns: []string{
			"node_modules/**",
			"vendor/**",
			".git/**",
			"dist/**",
			"build/**",
			"target/**",
			"__pycache__/**",
		},
		Workers:      runtime.NumCPU(),
		CacheSize:    4096,
		DebounceTime: 500 * time.Millisecond,
	}
}
