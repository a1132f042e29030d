package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Default include patterns cover every recognized extension
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .symdex/config.yml and .symdex/config.yaml
// - LoadConfig() merges config file with defaults
// - Environment variables override config file values and defaults
// - NewFileLoader() reads an explicit file and fails when it is missing
// - LoadConfig() returns error for malformed YAML and invalid values
// - Validate() rejects non-positive limits, bad globs and unknown formats
// - Validate() returns multiple errors for multiple invalid fields
// - ToIndexerConfig(), ExtractorOptions() and DBPath() carry the values over

func writeConfig(t *testing.T, rootDir, name, content string) {
	t.Helper()
	dir := filepath.Join(rootDir, StateDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)

	assert.Equal(t, 60, cfg.Extraction.SnippetMaxLines)
	assert.Equal(t, 8, cfg.Extraction.SignatureMaxLines)
	assert.True(t, cfg.Extraction.IncludeSource)
	assert.Equal(t, 4, cfg.Extraction.MaxDepth)

	assert.Equal(t, runtime.NumCPU(), cfg.Pipeline.Workers)
	assert.Equal(t, 4096, cfg.Pipeline.CacheSize)
	assert.Equal(t, 500, cfg.Pipeline.DebounceMS)

	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Empty(t, cfg.Output.DBPath)

	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")
	assert.NoError(t, Validate(cfg))
}

func TestDefault_IncludeCoversAllExtensions(t *testing.T) {
	cfg := Default()

	for _, pattern := range []string{"**/*.rs", "**/*.py", "**/*.tsx", "**/*.go", "**/*.vue", "**/*.toml", "**/*.md"} {
		assert.Contains(t, cfg.Paths.Include, pattern)
	}
	assert.IsNonDecreasing(t, cfg.Paths.Include)
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
extraction:
  snippet_max_lines: 20
  signature_max_lines: 3
  include_source: false
  max_depth: 2

paths:
  include:
    - "**/*.go"
    - "**/*.rs"
  ignore:
    - "third_party/**"

pipeline:
  workers: 3
  cache_size: 128
  debounce_ms: 250

output:
  format: json
  db_path: .symdex/items.db
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, ExtractionConfig{SnippetMaxLines: 20, SignatureMaxLines: 3, IncludeSource: false, MaxDepth: 2}, cfg.Extraction)
	assert.Equal(t, []string{"**/*.go", "**/*.rs"}, cfg.Paths.Include)
	assert.Equal(t, []string{"third_party/**"}, cfg.Paths.Ignore)
	assert.Equal(t, PipelineConfig{Workers: 3, CacheSize: 128, DebounceMS: 250}, cfg.Pipeline)
	assert.Equal(t, OutputConfig{Format: "json", DBPath: ".symdex/items.db"}, cfg.Output)
}

func TestLoadConfig_LoadsFromConfigYaml(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", `
pipeline:
  workers: 7
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Pipeline.Workers)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
extraction:
  snippet_max_lines: 10
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Extraction.SnippetMaxLines)
	assert.Equal(t, 8, cfg.Extraction.SignatureMaxLines)
	assert.True(t, cfg.Extraction.IncludeSource)
	assert.Equal(t, 4096, cfg.Pipeline.CacheSize)
	assert.Equal(t, Default().Paths.Include, cfg.Paths.Include)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
pipeline:
  workers: 2
  cache_size: 64
output:
  format: text
`)

	t.Setenv("SYMDEX_PIPELINE_WORKERS", "9")
	t.Setenv("SYMDEX_OUTPUT_FORMAT", "json")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Pipeline.Workers)
	assert.Equal(t, "json", cfg.Output.Format)
	// Not overridden, comes from the file
	assert.Equal(t, 64, cfg.Pipeline.CacheSize)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("SYMDEX_EXTRACTION_INCLUDE_SOURCE", "false")
	t.Setenv("SYMDEX_EXTRACTION_MAX_DEPTH", "6")
	t.Setenv("SYMDEX_OUTPUT_DB_PATH", "/tmp/symdex.db")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.False(t, cfg.Extraction.IncludeSource)
	assert.Equal(t, 6, cfg.Extraction.MaxDepth)
	assert.Equal(t, "/tmp/symdex.db", cfg.Output.DBPath)
	assert.Equal(t, 60, cfg.Extraction.SnippetMaxLines)
}

func TestNewFileLoader(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  debounce_ms: 50\n"), 0644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Pipeline.DebounceMS)

	_, err = NewFileLoader(filepath.Join(tempDir, "missing.yml")).Load()
	require.Error(t, err)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "pipeline:\n  workers: [unclosed\n")

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
output:
  format: xml
`)

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero snippet lines", func(c *Config) { c.Extraction.SnippetMaxLines = 0 }, ErrInvalidLimit},
		{"negative signature lines", func(c *Config) { c.Extraction.SignatureMaxLines = -1 }, ErrInvalidLimit},
		{"zero max depth", func(c *Config) { c.Extraction.MaxDepth = 0 }, ErrInvalidLimit},
		{"bad include glob", func(c *Config) { c.Paths.Include = []string{"src/[a"} }, ErrInvalidPattern},
		{"bad ignore glob", func(c *Config) { c.Paths.Ignore = []string{"{vendor"} }, ErrInvalidPattern},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }, ErrInvalidPipeline},
		{"zero cache", func(c *Config) { c.Pipeline.CacheSize = 0 }, ErrInvalidPipeline},
		{"negative debounce", func(c *Config) { c.Pipeline.DebounceMS = -5 }, ErrInvalidPipeline},
		{"unknown format", func(c *Config) { c.Output.Format = "yaml" }, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_AcceptsEmptyPathsAndUppercaseFormat(t *testing.T) {
	cfg := Default()
	cfg.Paths.Include = nil
	cfg.Paths.Ignore = nil
	cfg.Output.Format = "JSON"

	assert.NoError(t, Validate(cfg))
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	cfg := Default()
	cfg.Extraction.SnippetMaxLines = 0
	cfg.Pipeline.Workers = -1
	cfg.Output.Format = "xml"

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "snippet_max_lines")
	assert.Contains(t, msg, "workers")
	assert.Contains(t, msg, "xml")
}

func TestConfig_ToIndexerConfig(t *testing.T) {
	cfg := Default()
	cfg.Paths.Include = []string{"**/*.py"}
	cfg.Pipeline.Workers = 3
	cfg.Pipeline.DebounceMS = 120

	ic := cfg.ToIndexerConfig("/repo")

	assert.Equal(t, "/repo", ic.RootDir)
	assert.Equal(t, []string{"**/*.py"}, ic.IncludePatterns)
	assert.Equal(t, cfg.Paths.Ignore, ic.IgnorePatterns)
	assert.Equal(t, 3, ic.Workers)
	assert.Equal(t, 4096, ic.CacheSize)
	assert.Equal(t, 120*time.Millisecond, ic.DebounceTime)
	assert.False(t, ic.Force)
}

func TestConfig_ExtractorOptions(t *testing.T) {
	cfg := Default()
	cfg.Extraction.IncludeSource = false
	cfg.Extraction.MaxDepth = 2

	opts := cfg.ExtractorOptions()

	assert.Equal(t, 60, opts.SnippetMaxLines)
	assert.Equal(t, 8, opts.SignatureMaxLines)
	assert.False(t, opts.IncludeSource)
	assert.Equal(t, 2, opts.MaxDepth)
}

func TestConfig_DBPath(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.DBPath("/repo"))

	cfg.Output.DBPath = ".symdex/items.db"
	assert.Equal(t, filepath.Join("/repo", ".symdex", "items.db"), cfg.DBPath("/repo"))

	cfg.Output.DBPath = "/var/lib/items.db"
	assert.Equal(t, "/var/lib/items.db", cfg.DBPath("/repo"))
}
