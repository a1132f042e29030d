package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// FileWriter writes extraction results to SQLite.
type FileWriter struct {
	db *sql.DB
}

// NewFileWriter creates a FileWriter instance.
// DB must have schema already created via CreateSchema().
func NewFileWriter(db *sql.DB) *FileWriter {
	return &FileWriter{db: db}
}

var itemColumns = []string{
	"item_id", "file_path", "position", "kind", "name", "signature", "doc", "source",
	"start_line", "end_line", "visibility", "owner_name", "owner_kind", "metadata_json",
}

// WriteFile replaces everything stored for rec.Path with rec.
// Readers never observe a file with a partial item set.
func (w *FileWriter) WriteFile(ctx context.Context, rec *FileRecord) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Deleting the file row cascades to its items.
	if _, err := sq.Delete("files").
		Where(sq.Eq{"path": rec.Path}).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear file %s: %w", rec.Path, err)
	}

	extractedAt := rec.ExtractedAt
	if extractedAt.IsZero() {
		extractedAt = time.Now()
	}

	if _, err := sq.Insert("files").
		Columns("path", "language", "hash", "item_count", "extracted_at").
		Values(rec.Path, string(rec.Language), rec.Hash, len(rec.Items), extractedAt.UTC().Format(time.RFC3339)).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to write file %s: %w", rec.Path, err)
	}

	if len(rec.Items) > 0 {
		// Build the statement once with Squirrel, then prepare it.
		placeholders := make([]interface{}, len(itemColumns))
		sqlStr, _, err := sq.Insert("items").Columns(itemColumns...).Values(placeholders...).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build SQL: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, sqlStr)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range rec.Items {
			it := &rec.Items[i]
			md, err := EncodeMetadata(&it.Metadata)
			if err != nil {
				return fmt.Errorf("item %s %q in %s: %w", it.Kind, it.Name, rec.Path, err)
			}
			_, err = stmt.ExecContext(ctx,
				uuid.New().String(),
				rec.Path,
				i,
				string(it.Kind),
				it.Name,
				it.Signature,
				it.Doc,
				it.Source,
				it.StartLine,
				it.EndLine,
				string(it.Visibility),
				it.Metadata.OwnerName,
				string(it.Metadata.OwnerKind),
				md,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item %s %q in %s: %w", it.Kind, it.Name, rec.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file %s: %w", rec.Path, err)
	}
	return nil
}

// RemoveFile deletes a file and its items. Removing an unknown path is not
// an error.
func (w *FileWriter) RemoveFile(ctx context.Context, path string) error {
	_, err := sq.Delete("files").
		Where(sq.Eq{"path": path}).
		RunWith(w.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove file %s: %w", path, err)
	}
	return nil
}
