package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/storage"
)

// Test Plan for Formatter:
// - Items are listed with kind, name, line range and visibility
// - Owned members are indented, signatures and doc show their first line
// - Stats report file outcomes and per-kind item counts in kind order

func TestFormatter_FormatFile(t *testing.T) {
	t.Parallel()

	rec := &storage.FileRecord{
		Path:     "src/geo.rs",
		Language: extraction.LangRust,
		Items: []extraction.Item{
			{Kind: extraction.KindStruct, Name: "Point", Signature: "pub struct Point", Doc: "A point.\nIn 2D.", StartLine: 1, EndLine: 4, Visibility: extraction.VisibilityPublic},
			{Kind: extraction.KindMethod, Name: "norm", Signature: "fn norm(&self) -> f64", StartLine: 6, EndLine: 6, Visibility: extraction.VisibilityPrivate,
				Metadata: extraction.Metadata{OwnerName: "Point"}},
		},
	}

	want := "src/geo.rs (rust, 2 items)\n" +
		"  struct Point (lines 1-4) public\n" +
		"    pub struct Point\n" +
		"    # A point.\n" +
		"    method norm (line 6) private\n" +
		"      fn norm(&self) -> f64"
	assert.Equal(t, want, NewFormatter().FormatFile(rec))
}

func TestFormatter_FormatStats(t *testing.T) {
	t.Parallel()

	stats := newProcessingStats()
	stats.FilesProcessed = 3
	stats.FilesUnchanged = 2
	stats.ParseErrors = 1
	stats.TotalItems = 5
	stats.ItemsByKind[extraction.KindFunction] = 4
	stats.ItemsByKind[extraction.KindClass] = 1
	stats.ProcessingTime = 1500 * time.Millisecond

	want := "Files: 3 extracted, 2 unchanged, 1 failed\n" +
		"Items: 5\n" +
		"  class        1\n" +
		"  function     4\n" +
		"Time: 1.50s"
	assert.Equal(t, want, NewFormatter().FormatStats(stats))
}
