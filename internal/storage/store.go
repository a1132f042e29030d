package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store is an item snapshot database: one SQLite file holding the latest
// extraction result of every scanned file.
type Store struct {
	db     *sql.DB
	writer *FileWriter
	reader *FileReader
}

// Open opens or creates the snapshot database at path and ensures the
// schema exists. The parent directory is created if missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the foreign_keys pragma and writes serialized.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		writer: NewFileWriter(db),
		reader: NewFileReader(db),
	}, nil
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WriteFile atomically replaces the stored result for rec.Path.
func (s *Store) WriteFile(ctx context.Context, rec *FileRecord) error {
	return s.writer.WriteFile(ctx, rec)
}

// RemoveFile deletes a file and its items.
func (s *Store) RemoveFile(ctx context.Context, path string) error {
	return s.writer.RemoveFile(ctx, path)
}

// FileHashes maps every stored path to its content hash.
func (s *Store) FileHashes(ctx context.Context) (map[string]string, error) {
	return s.reader.FileHashes(ctx)
}

// Reader exposes the query side of the store.
func (s *Store) Reader() *FileReader {
	return s.reader
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
