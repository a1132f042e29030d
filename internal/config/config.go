package config

import (
	"runtime"
	"sort"

	"github.com/mvp-joe/symdex/internal/indexer"
)

// Config represents the complete symdex configuration.
// It can be loaded from .symdex/config.yml with environment variable overrides.
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// ExtractionConfig bounds how much text each extracted item carries.
type ExtractionConfig struct {
	SnippetMaxLines   int  `yaml:"snippet_max_lines" mapstructure:"snippet_max_lines"`     // source lines kept per item
	SignatureMaxLines int  `yaml:"signature_max_lines" mapstructure:"signature_max_lines"` // header lines kept in a signature
	IncludeSource     bool `yaml:"include_source" mapstructure:"include_source"`           // attach source snippets
	MaxDepth          int  `yaml:"max_depth" mapstructure:"max_depth"`                     // YAML/JSON key nesting depth
}

// PathsConfig defines which files to extract and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for files to extract
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// PipelineConfig tunes the batch and watch pipeline.
type PipelineConfig struct {
	Workers    int `yaml:"workers" mapstructure:"workers"`         // concurrent extractions
	CacheSize  int `yaml:"cache_size" mapstructure:"cache_size"`   // result cache entries
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"` // watch mode debounce window
}

// OutputConfig selects how results are emitted.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`   // "json" or "text"
	DBPath string `yaml:"db_path" mapstructure:"db_path"` // SQLite snapshot, empty for none
}

// Output formats accepted by OutputConfig.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			SnippetMaxLines:   60,
			SignatureMaxLines: 8,
			IncludeSource:     true,
			MaxDepth:          4,
		},
		Paths: PathsConfig{
			Include: defaultIncludePatterns(),
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
				".venv/**",
				"**/*.min.js",
			},
		},
		Pipeline: PipelineConfig{
			Workers:    runtime.NumCPU(),
			CacheSize:  4096,
			DebounceMS: 500,
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}

// defaultIncludePatterns matches every extension the extractor understands.
func defaultIncludePatterns() []string {
	var patterns []string
	for _, exts := range indexer.LanguageExtensions() {
		for _, ext := range exts {
			patterns = append(patterns, "**/*"+ext)
		}
	}
	sort.Strings(patterns)
	return patterns
}
