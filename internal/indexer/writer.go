package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/symdex/internal/storage"
)

// SnapshotVersion identifies the JSON snapshot layout.
const SnapshotVersion = "1"

// Snapshot is the JSON form of a scan: every file's items plus run stats.
type Snapshot struct {
	Version     string                `json:"version"`
	GeneratedAt time.Time             `json:"generated_at"`
	Root        string                `json:"root"`
	Stats       *ProcessingStats      `json:"stats,omitempty"`
	Files       []*storage.FileRecord `json:"files"`
}

// AtomicWriter handles atomic file writing using temp → rename pattern.
type AtomicWriter struct {
	outputDir string
	tempDir   string
}

// NewAtomicWriter creates a new atomic writer.
func NewAtomicWriter(outputDir string) (*AtomicWriter, error) {
	tempDir := filepath.Join(outputDir, ".tmp")

	// Clean up stale temp files
	if err := os.RemoveAll(tempDir); err != nil {
		return nil, fmt.Errorf("failed to clean temp directory: %w", err)
	}

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &AtomicWriter{
		outputDir: outputDir,
		tempDir:   tempDir,
	}, nil
}

// WriteSnapshot writes a snapshot file atomically.
func (w *AtomicWriter) WriteSnapshot(filename string, snapshot *Snapshot) error {
	if snapshot.Version == "" {
		snapshot.Version = SnapshotVersion
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Write to temp file
	tempPath := filepath.Join(w.tempDir, filename)
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Rename to final location (atomic operation)
	finalPath := filepath.Join(w.outputDir, filename)
	if err := os.Rename(tempPath, finalPath); err != nil {
		// Clean up temp file on error
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ReadSnapshot reads an existing snapshot file.
// A missing file yields an empty snapshot.
func (w *AtomicWriter) ReadSnapshot(filename string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(w.outputDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{Version: SnapshotVersion, Files: []*storage.FileRecord{}}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close removes the temp directory.
func (w *AtomicWriter) Close() error {
	return os.RemoveAll(w.tempDir)
}
