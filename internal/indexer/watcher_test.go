package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for IndexerWatcher:
// - NewIndexerWatcher rejects a missing root and foreign Indexer values
// - File creation triggers an incremental reindex after the debounce window
// - File deletion removes the file from storage
// - Files in new directories are picked up
// - A populated directory moved into the root is extracted without file events
// - Ignored paths and unknown extensions don't trigger reindex
// - Stop is idempotent and returns after context cancellation

func startTestWatcher(t *testing.T, root string, store Storage) *IndexerWatcher {
	t.Helper()
	idx := newTestIndexer(t, root, store, nil)
	w, err := NewIndexerWatcher(idx, root)
	require.NoError(t, err)
	w.debounceTime = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	return w
}

func TestNewIndexerWatcher_InvalidDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	idx := newTestIndexer(t, root, NewMemoryStorage(), nil)

	_, err := NewIndexerWatcher(idx, filepath.Join(root, "nonexistent"))
	require.Error(t, err)
}

type fakeIndexer struct{ Indexer }

func TestNewIndexerWatcher_ForeignIndexer(t *testing.T) {
	t.Parallel()

	_, err := NewIndexerWatcher(fakeIndexer{}, t.TempDir())
	require.Error(t, err)
}

func TestIndexerWatcher_CreateAndDelete(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewMemoryStorage()
	startTestWatcher(t, root, store)

	writeTree(t, root, map[string]string{"lib.rs": "pub fn watched() {}\n"})
	require.Eventually(t, func() bool {
		_, ok := store.Get("lib.rs")
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(root, "lib.rs")))
	require.Eventually(t, func() bool {
		_, ok := store.Get("lib.rs")
		return !ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestIndexerWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewMemoryStorage()
	startTestWatcher(t, root, store)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeTree(t, root, map[string]string{"pkg/mod.py": "def f():\n    pass\n"})

	require.Eventually(t, func() bool {
		_, ok := store.Get("pkg/mod.py")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestIndexerWatcher_MovedDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewMemoryStorage()
	startTestWatcher(t, root, store)

	staging := t.TempDir()
	writeTree(t, staging, map[string]string{"pkg/a.rs": "pub fn a() {}\n", "pkg/sub/b.rb": "def b; end\n"})
	require.NoError(t, os.Rename(filepath.Join(staging, "pkg"), filepath.Join(root, "pkg")))

	require.Eventually(t, func() bool {
		_, okA := store.Get("pkg/a.rs")
		_, okB := store.Get("pkg/sub/b.rb")
		return okA && okB
	}, 5*time.Second, 20*time.Millisecond)
}

func TestIndexerWatcher_ShouldProcessEvent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	idx := newTestIndexer(t, root, NewMemoryStorage(), nil)
	w, err := NewIndexerWatcher(idx, root)
	require.NoError(t, err)
	defer w.watcher.Close()

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"write source", "a.go", fsnotify.Write, true},
		{"remove source", "a.go", fsnotify.Remove, true},
		{"chmod ignored", "a.go", fsnotify.Chmod, false},
		{"unknown extension", "a.bin", fsnotify.Write, false},
		{"ignored directory", "node_modules/x.js", fsnotify.Write, false},
		{"state directory", ".symdex/config.yml", fsnotify.Write, false},
	}
	for _, tt := range tests {
		event := fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(tt.path)), Op: tt.op}
		assert.Equal(t, tt.want, w.shouldProcessEvent(event), tt.name)
	}
}

func TestIndexerWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	idx := newTestIndexer(t, root, NewMemoryStorage(), nil)
	w, err := NewIndexerWatcher(idx, root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
