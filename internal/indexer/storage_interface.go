package indexer

import (
	"context"
	"sort"
	"sync"

	"github.com/mvp-joe/symdex/internal/storage"
)

// Storage persists per-file extraction results.
// *storage.Store satisfies it for SQLite snapshots.
type Storage interface {
	// WriteFile replaces everything stored for rec.Path.
	WriteFile(ctx context.Context, rec *storage.FileRecord) error

	// RemoveFile forgets a file that no longer exists.
	RemoveFile(ctx context.Context, path string) error

	// FileHashes maps stored paths to content hashes for change detection.
	FileHashes(ctx context.Context) (map[string]string, error)
}

// MemoryStorage keeps results in memory. Used when no database is
// configured and in tests.
type MemoryStorage struct {
	mu    sync.Mutex
	files map[string]*storage.FileRecord
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string]*storage.FileRecord)}
}

func (m *MemoryStorage) WriteFile(ctx context.Context, rec *storage.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[rec.Path] = rec
	return nil
}

func (m *MemoryStorage) RemoveFile(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *MemoryStorage) FileHashes(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hashes := make(map[string]string, len(m.files))
	for path, rec := range m.files {
		hashes[path] = rec.Hash
	}
	return hashes, nil
}

// Records returns the stored results ordered by path.
func (m *MemoryStorage) Records() []*storage.FileRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*storage.FileRecord, 0, len(m.files))
	for _, rec := range m.files {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Get returns the stored result for path.
func (m *MemoryStorage) Get(path string) (*storage.FileRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.files[path]
	return rec, ok
}
