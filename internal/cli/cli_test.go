package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/config"
	"github.com/mvp-joe/symdex/internal/indexer"
	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/parsers"
	"github.com/mvp-joe/symdex/internal/storage"
)

// Test Plan for CLI commands:
// - extract prints JSON records and text outlines for detected languages
// - extract honours --lang and rejects unknown languages, formats and
//   undetectable extensions
// - scan prints a text or JSON summary over an in-memory store
// - scan --db persists items and a second scan finds them unchanged
// - scan --output writes a snapshot readable by AtomicWriter
// - languages lists every tag with its extensions
// - version prints the build information
// - formatNumber inserts thousands separators

const simpleGo = "../../testdata/code/go/simple.go"

var testExtractor = parsers.NewExtractor(cst.NewRegistry(), parsers.DefaultOptions())

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

var scanTree = map[string]string{
	"src/lib.rs":    "/// Adds.\npub fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n",
	"src/util.py":   "def helper():\n    pass\n",
	"README.md":     "# Title\n\nIntro.\n\n## Usage\n\nRun it.\n",
	"vendor/x/y.go": "package y\n\nfunc Y() {}\n",
	"image.unknown": "binary-ish",
	"conf/app.toml": "[server]\nport = 80\n",
}

func TestExecuteExtract_JSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, executeExtract(&out, testExtractor, []string{simpleGo}, "", config.FormatJSON))

	var records []*storage.FileRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, extraction.LangGo, rec.Language)
	assert.Len(t, rec.Hash, 64)

	names := make(map[string]bool)
	for _, it := range rec.Items {
		names[it.Name] = true
	}
	for _, want := range []string{"Config", "Handler", "NewHandler", "ServeHTTP"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestExecuteExtract_Text(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.rs": "pub fn alpha() {}\n", "b.py": "def beta():\n    pass\n"})

	var out bytes.Buffer
	files := []string{filepath.Join(root, "a.rs"), filepath.Join(root, "b.py")}
	require.NoError(t, executeExtract(&out, testExtractor, files, "", "TEXT"))

	text := out.String()
	assert.Contains(t, text, "(rust, 1 item)")
	assert.Contains(t, text, "function alpha (line 1) public")
	assert.Contains(t, text, "(python, 1 item)")
	assert.Contains(t, text, "beta")
}

func TestExecuteExtract_LangOverride(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"build": "def main():\n    pass\n"})
	path := filepath.Join(root, "build")

	var out bytes.Buffer
	err := executeExtract(&out, testExtractor, []string{path}, "", config.FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot detect language")

	out.Reset()
	require.NoError(t, executeExtract(&out, testExtractor, []string{path}, "py", config.FormatJSON))
	assert.Contains(t, out.String(), `"language": "python"`)
}

func TestExecuteExtract_Errors(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := executeExtract(&out, testExtractor, []string{simpleGo}, "cobol", config.FormatJSON)
	require.Error(t, err)

	err = executeExtract(&out, testExtractor, []string{simpleGo}, "", "xml")
	require.ErrorIs(t, err, config.ErrInvalidFormat)

	err = executeExtract(&out, testExtractor, []string{filepath.Join(t.TempDir(), "missing.go")}, "", config.FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
	assert.Empty(t, out.String())
}

func testScanConfig() *config.Config {
	cfg := config.Default()
	cfg.Pipeline.Workers = 2
	cfg.Pipeline.CacheSize = 64
	return cfg
}

func TestExecuteScan_TextSummary(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, scanTree)

	var stdout, stderr bytes.Buffer
	err := executeScan(context.Background(), &stdout, &stderr, root, testScanConfig(), scanOptions{quiet: true})
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Files: 4 extracted")
	assert.Contains(t, stdout.String(), "Items: ")
	assert.Empty(t, stderr.String())
}

func TestExecuteScan_ProgressOutput(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, scanTree)

	var stdout, stderr bytes.Buffer
	err := executeScan(context.Background(), &stdout, &stderr, root, testScanConfig(), scanOptions{})
	require.NoError(t, err)

	assert.Contains(t, stderr.String(), "Discovering files...")
	assert.Contains(t, stderr.String(), "Found 4 files")
	assert.Contains(t, stderr.String(), "Extraction complete")
}

func TestExecuteScan_JSONSummary(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, scanTree)

	var stdout, stderr bytes.Buffer
	opts := scanOptions{quiet: true, format: config.FormatJSON, workers: 1}
	require.NoError(t, executeScan(context.Background(), &stdout, &stderr, root, testScanConfig(), opts))

	var stats indexer.ProcessingStats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	assert.Equal(t, 4, stats.FilesDiscovered)
	assert.Equal(t, 4, stats.FilesProcessed)
	assert.Positive(t, stats.TotalItems)
	assert.Positive(t, stats.ItemsByLang[extraction.LangRust])
}

func TestExecuteScan_Database(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, scanTree)
	dbPath := filepath.Join(t.TempDir(), "items.db")

	opts := scanOptions{quiet: true, format: config.FormatJSON, dbPath: dbPath}
	var stdout bytes.Buffer
	require.NoError(t, executeScan(context.Background(), &stdout, &bytes.Buffer{}, root, testScanConfig(), opts))

	stdout.Reset()
	require.NoError(t, executeScan(context.Background(), &stdout, &bytes.Buffer{}, root, testScanConfig(), opts))
	var stats indexer.ProcessingStats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	assert.Equal(t, 0, stats.FilesProcessed)
	assert.Equal(t, 4, stats.FilesUnchanged)

	store, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	found, err := store.Reader().FindItems(context.Background(), "add", extraction.KindFunction)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "src/lib.rs", found[0].FilePath)
}

func TestExecuteScan_Snapshot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, scanTree)
	outDir := t.TempDir()

	opts := scanOptions{quiet: true, output: filepath.Join(outDir, "items.json")}
	require.NoError(t, executeScan(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, root, testScanConfig(), opts))

	writer, err := indexer.NewAtomicWriter(outDir)
	require.NoError(t, err)
	defer writer.Close()

	snap, err := writer.ReadSnapshot("items.json")
	require.NoError(t, err)
	assert.Equal(t, indexer.SnapshotVersion, snap.Version)
	assert.Equal(t, root, snap.Root)
	require.Len(t, snap.Files, 4)
	assert.Equal(t, "README.md", snap.Files[0].Path)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 4, snap.Stats.FilesProcessed)
}

func TestExecuteScan_InvalidInput(t *testing.T) {
	t.Parallel()

	err := executeScan(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, t.TempDir(), testScanConfig(), scanOptions{quiet: true, format: "xml"})
	require.ErrorIs(t, err, config.ErrInvalidFormat)

	err = executeScan(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, filepath.Join(t.TempDir(), "missing"), testScanConfig(), scanOptions{quiet: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create indexer")
}

func TestWriteLanguages(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	writeLanguages(&out)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	assert.Len(t, lines, len(extraction.AllLanguages))
	assert.Contains(t, out.String(), "rust         .rs")
	assert.Contains(t, out.String(), "yaml         .yaml .yml")
	assert.Contains(t, out.String(), "cpp          .cc .cpp .cxx .hh .hpp")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "symdex dev")
	assert.Contains(t, out.String(), "Git commit: none")
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.n))
	}
}
