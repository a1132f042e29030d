package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// Test Plan for FileWriter and FileReader:
// - A written file round-trips with its items in extraction order
// - Metadata survives the metadata_json column, owner columns are filled
// - Rewriting a path replaces its items instead of appending
// - RemoveFile cascades to items and tolerates unknown paths
// - FileHashes reports the stored hash per path
// - FindItems filters by name and optional kind across files
// - GetFile returns nil for unknown paths
// - LoadFiles rebuilds whole records ordered by path

func sampleRecord(path string) *FileRecord {
	return &FileRecord{
		Path:     path,
		Language: extraction.LangRust,
		Hash:     "abc123",
		Items: []extraction.Item{
			{
				Kind:       extraction.KindStruct,
				Name:       "Point",
				Signature:  "pub struct Point",
				Doc:        "A point.",
				StartLine:  1,
				EndLine:    4,
				Visibility: extraction.VisibilityPublic,
				Metadata:   extraction.Metadata{Fields: []string{"x", "y"}},
			},
			{
				Kind:       extraction.KindMethod,
				Name:       "norm",
				Signature:  "pub fn norm(&self) -> f64",
				Source:     "pub fn norm(&self) -> f64 {\n    0.0\n}",
				StartLine:  7,
				EndLine:    9,
				Visibility: extraction.VisibilityPublic,
				Metadata: extraction.Metadata{
					ReturnType: "f64",
					Parameters: []string{"&self"},
					OwnerName:  "Point",
					OwnerKind:  extraction.KindStruct,
					DocSections: &extraction.DocSections{
						Summary: "Length.",
						Params:  map[string]string{"self": "the point"},
					},
				},
			},
		},
		ExtractedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFileWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTestStore(t)

	rec := sampleRecord("src/geo.rs")
	require.NoError(t, store.WriteFile(ctx, rec))

	info, err := store.Reader().GetFile(ctx, "src/geo.rs")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, extraction.LangRust, info.Language)
	assert.Equal(t, "abc123", info.Hash)
	assert.Equal(t, 2, info.ItemCount)
	assert.True(t, rec.ExtractedAt.Equal(info.ExtractedAt))

	items, err := store.Reader().GetItems(ctx, "src/geo.rs")
	require.NoError(t, err)
	require.Len(t, items, 2)
	for i, s := range items {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "src/geo.rs", s.FilePath)
		assert.Equal(t, rec.Items[i], s.Item)
	}

	var owner string
	err = store.DB().QueryRow("SELECT owner_name FROM items WHERE name = 'norm'").Scan(&owner)
	require.NoError(t, err)
	assert.Equal(t, "Point", owner)
}

func TestFileWriter_ReplacesPerPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.WriteFile(ctx, sampleRecord("a.rs")))
	require.NoError(t, store.WriteFile(ctx, sampleRecord("b.rs")))

	updated := sampleRecord("a.rs")
	updated.Hash = "def456"
	updated.Items = updated.Items[:1]
	require.NoError(t, store.WriteFile(ctx, updated))

	items, err := store.Reader().GetItems(ctx, "a.rs")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	other, err := store.Reader().GetItems(ctx, "b.rs")
	require.NoError(t, err)
	assert.Len(t, other, 2, "other files untouched")

	hashes, err := store.FileHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.rs": "def456", "b.rs": "abc123"}, hashes)
}

func TestFileWriter_EmptyItemList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTestStore(t)

	rec := sampleRecord("empty.rs")
	rec.Items = nil
	require.NoError(t, store.WriteFile(ctx, rec))

	info, err := store.Reader().GetFile(ctx, "empty.rs")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Zero(t, info.ItemCount)
}

func TestFileWriter_RemoveFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.WriteFile(ctx, sampleRecord("gone.rs")))
	require.NoError(t, store.RemoveFile(ctx, "gone.rs"))
	require.NoError(t, store.RemoveFile(ctx, "never-existed.rs"))

	info, err := store.Reader().GetFile(ctx, "gone.rs")
	require.NoError(t, err)
	assert.Nil(t, info)

	var count int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Zero(t, count, "items cascade with their file")
}

func TestFileReader_FindItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.WriteFile(ctx, sampleRecord("a.rs")))
	require.NoError(t, store.WriteFile(ctx, sampleRecord("b.rs")))

	found, err := store.Reader().FindItems(ctx, "Point", "")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a.rs", found[0].FilePath)
	assert.Equal(t, "b.rs", found[1].FilePath)

	found, err = store.Reader().FindItems(ctx, "Point", extraction.KindMethod)
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := store.Reader().GetAllFiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a.rs", all[0].Path)
}

func TestFileReader_LoadFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.WriteFile(ctx, sampleRecord("z.rs")))
	require.NoError(t, store.WriteFile(ctx, &FileRecord{Path: "empty.toml", Language: extraction.LangTOML, Hash: "e"}))

	records, err := store.Reader().LoadFiles(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "empty.toml", records[0].Path)
	assert.Empty(t, records[0].Items)

	want := sampleRecord("z.rs")
	assert.Equal(t, want.Path, records[1].Path)
	assert.Equal(t, want.Hash, records[1].Hash)
	assert.Equal(t, want.Items, records[1].Items)
	assert.True(t, want.ExtractedAt.Equal(records[1].ExtractedAt))
}
