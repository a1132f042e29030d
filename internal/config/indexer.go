package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/symdex/internal/indexer"
	"github.com/mvp-joe/symdex/internal/indexer/parsers"
)

// ToIndexerConfig converts a Config to an indexer.Config.
// The rootDir parameter specifies the root directory of the codebase to index.
func (c *Config) ToIndexerConfig(rootDir string) *indexer.Config {
	return &indexer.Config{
		RootDir:         rootDir,
		IncludePatterns: c.Paths.Include,
		IgnorePatterns:  c.Paths.Ignore,
		Workers:         c.Pipeline.Workers,
		CacheSize:       c.Pipeline.CacheSize,
		DebounceTime:    time.Duration(c.Pipeline.DebounceMS) * time.Millisecond,
	}
}

// ExtractorOptions converts the extraction section to parser limits.
func (c *Config) ExtractorOptions() parsers.Options {
	return parsers.Options{
		SnippetMaxLines:   c.Extraction.SnippetMaxLines,
		SignatureMaxLines: c.Extraction.SignatureMaxLines,
		IncludeSource:     c.Extraction.IncludeSource,
		MaxDepth:          c.Extraction.MaxDepth,
	}
}

// DBPath resolves the configured snapshot database against rootDir.
// It returns "" when no database is configured.
func (c *Config) DBPath(rootDir string) string {
	p := strings.TrimSpace(c.Output.DBPath)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}
