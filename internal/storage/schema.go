package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is written to store_metadata when the schema is created.
const SchemaVersion = "1"

// CreateSchema creates the files and items tables and their indexes.
// All statements run in one transaction and are idempotent.
//
// Must be called with SQLite PRAGMA foreign_keys = ON so that deleting a
// file row removes its items.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"items", createItemsTable},
		{"store_metadata", createStoreMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO store_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap store_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a database
// that has never been initialized.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='store_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check store_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM store_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in store_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	language     TEXT NOT NULL,
	hash         TEXT NOT NULL,
	item_count   INTEGER NOT NULL DEFAULT 0,
	extracted_at TEXT NOT NULL
)`

const createItemsTable = `
CREATE TABLE IF NOT EXISTS items (
	item_id       TEXT PRIMARY KEY,
	file_path     TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	name          TEXT NOT NULL,
	signature     TEXT NOT NULL DEFAULT '',
	doc           TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT '',
	start_line    INTEGER NOT NULL,
	end_line      INTEGER NOT NULL,
	visibility    TEXT NOT NULL,
	owner_name    TEXT NOT NULL DEFAULT '',
	owner_kind    TEXT NOT NULL DEFAULT '',
	metadata_json TEXT NOT NULL DEFAULT '{}'
)`

const createStoreMetadataTable = `
CREATE TABLE IF NOT EXISTS store_metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_items_file_path ON items(file_path, position)`,
	`CREATE INDEX IF NOT EXISTS idx_items_name ON items(name)`,
	`CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind)`,
	`CREATE INDEX IF NOT EXISTS idx_files_language ON files(language)`,
}
