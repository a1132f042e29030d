package storage

import (
	"time"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// Data transfer structs that mirror the tables in schema.go.

// FileRecord is the full extraction result for one file, written and
// replaced as a unit.
type FileRecord struct {
	Path        string              `json:"path"`         // relative to the scanned root, slash separated
	Language    extraction.Language `json:"language"`     // tag the file was extracted as
	Hash        string              `json:"hash"`         // SHA-256 of the file content
	Items       []extraction.Item   `json:"items"`        // items rows, in extraction order
	ExtractedAt time.Time           `json:"extracted_at"`
}

// FileInfo is one row of the files table.
type FileInfo struct {
	Path        string
	Language    extraction.Language
	Hash        string
	ItemCount   int
	ExtractedAt time.Time
}

// StoredItem is one row of the items table with its file.
type StoredItem struct {
	ID       string
	FilePath string
	Item     extraction.Item
}
