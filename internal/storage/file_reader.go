package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// FileReader reads extraction results from SQLite.
type FileReader struct {
	db *sql.DB
}

// NewFileReader creates a FileReader instance.
// DB should have schema already created.
func NewFileReader(db *sql.DB) *FileReader {
	return &FileReader{db: db}
}

// GetFile returns the files row for path.
// Returns (nil, nil) if file not found.
func (r *FileReader) GetFile(ctx context.Context, path string) (*FileInfo, error) {
	info := &FileInfo{}
	var language, extractedAt string

	err := sq.Select("path", "language", "hash", "item_count", "extracted_at").
		From("files").
		Where(sq.Eq{"path": path}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&info.Path, &language, &info.Hash, &info.ItemCount, &extractedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}

	info.Language = extraction.Language(language)
	info.ExtractedAt, _ = time.Parse(time.RFC3339, extractedAt)
	return info, nil
}

// GetAllFiles returns every files row ordered by path.
func (r *FileReader) GetAllFiles(ctx context.Context) ([]*FileInfo, error) {
	rows, err := sq.Select("path", "language", "hash", "item_count", "extracted_at").
		From("files").
		OrderBy("path").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query all files: %w", err)
	}
	defer rows.Close()

	var files []*FileInfo
	for rows.Next() {
		info := &FileInfo{}
		var language, extractedAt string
		if err := rows.Scan(&info.Path, &language, &info.Hash, &info.ItemCount, &extractedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		info.Language = extraction.Language(language)
		info.ExtractedAt, _ = time.Parse(time.RFC3339, extractedAt)
		files = append(files, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file rows: %w", err)
	}
	return files, nil
}

// LoadFiles rebuilds every stored file with its items, ordered by path.
func (r *FileReader) LoadFiles(ctx context.Context) ([]*FileRecord, error) {
	infos, err := r.GetAllFiles(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*FileRecord, 0, len(infos))
	for _, info := range infos {
		stored, err := r.GetItems(ctx, info.Path)
		if err != nil {
			return nil, err
		}
		items := make([]extraction.Item, 0, len(stored))
		for _, s := range stored {
			items = append(items, s.Item)
		}
		records = append(records, &FileRecord{
			Path:        info.Path,
			Language:    info.Language,
			Hash:        info.Hash,
			Items:       items,
			ExtractedAt: info.ExtractedAt,
		})
	}
	return records, nil
}

// FileHashes maps every stored path to its content hash.
func (r *FileReader) FileHashes(ctx context.Context) (map[string]string, error) {
	rows, err := sq.Select("path", "hash").
		From("files").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query file hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan file hash: %w", err)
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file hashes: %w", err)
	}
	return hashes, nil
}

// GetItems returns the items of one file in extraction order.
func (r *FileReader) GetItems(ctx context.Context, path string) ([]StoredItem, error) {
	return r.queryItems(ctx, sq.Eq{"file_path": path})
}

// FindItems returns items with the given name across all files, optionally
// restricted to one kind.
func (r *FileReader) FindItems(ctx context.Context, name string, kind extraction.Kind) ([]StoredItem, error) {
	where := sq.Eq{"name": name}
	if kind != "" {
		where["kind"] = string(kind)
	}
	return r.queryItems(ctx, where)
}

func (r *FileReader) queryItems(ctx context.Context, where sq.Eq) ([]StoredItem, error) {
	rows, err := sq.Select(itemColumns...).
		From("items").
		Where(where).
		OrderBy("file_path", "position").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []StoredItem
	for rows.Next() {
		var (
			s                           StoredItem
			position                    int
			kind, visibility, ownerKind string
			ownerName, metadataJSON     string
		)
		err := rows.Scan(
			&s.ID, &s.FilePath, &position, &kind, &s.Item.Name, &s.Item.Signature,
			&s.Item.Doc, &s.Item.Source, &s.Item.StartLine, &s.Item.EndLine,
			&visibility, &ownerName, &ownerKind, &metadataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		md, err := DecodeMetadata(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", s.ID, err)
		}
		s.Item.Kind = extraction.Kind(kind)
		s.Item.Visibility = extraction.Visibility(visibility)
		s.Item.Metadata = md
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}
