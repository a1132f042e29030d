package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for schema:
// - A fresh database reports schema version "0"
// - CreateSchema creates all tables and records the version
// - CreateSchema is idempotent
// - Reopening a store keeps its data

func TestCreateSchema(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, "0", version)

	require.NoError(t, CreateSchema(db))
	require.NoError(t, CreateSchema(db), "second call is a no-op")

	for _, table := range []string{"files", "items", "store_metadata"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}

	version, err = GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestOpen_Persists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "symdex.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.WriteFile(t.Context(), sampleRecord("keep.rs")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	info, err := reopened.Reader().GetFile(t.Context(), "keep.rs")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 2, info.ItemCount)
}
