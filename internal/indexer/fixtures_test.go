package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/parsers"
)

// One extractor is shared by every test; it is safe for concurrent use.
var testExtractor = parsers.NewExtractor(cst.NewRegistry(), parsers.DefaultOptions())

// writeTree creates files under root from a relative path → content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// recordingProgress counts progress callbacks.
type recordingProgress struct {
	discovered int
	started    int
	processed  []string
	completed  int
}

func (r *recordingProgress) OnDiscoveryStart()                    {}
func (r *recordingProgress) OnDiscoveryComplete(files int)        { r.discovered = files }
func (r *recordingProgress) OnFileProcessingStart(totalFiles int) { r.started = totalFiles }
func (r *recordingProgress) OnFileProcessed(fileName string)      { r.processed = append(r.processed, fileName) }
func (r *recordingProgress) OnComplete(stats *ProcessingStats)    { r.completed++ }

var sampleTree = map[string]string{
	"src/lib.rs":            "/// Adds.\npub fn add(a: i32, b: i32) -> i32 { a + b }\n",
	"src/util.py":           "def helper():\n    pass\n",
	"web/App.vue":           "<script setup>\nconst x = 1\n</script>\n",
	"docs/guide.md":         "# Guide\n\n## Install\n",
	"config.toml":           "[server]\nport = 80\n",
	"node_modules/dep/a.js": "export function dep() {}\n",
	".symdex/config.yml":    "pipeline:\n  workers: 2\n",
	"notes.unknownext":      "ignored",
	"assets/logo.png":       "\x89PNG",
	"internal/broken.toml":  "[broken\nkey = \n",
}
