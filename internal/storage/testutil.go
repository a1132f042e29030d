package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestStore creates a file-backed store in t.TempDir().
// The store is closed by t.Cleanup().
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    store := storage.NewTestStore(t)
//	    // ... test code ...
//	}
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "symdex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}
