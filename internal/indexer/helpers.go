package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// Checksum computes the SHA-256 hash of file content.
func Checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// isText reports whether content looks like text: no null byte in the
// first 512 bytes. This is the same heuristic used by tools like 'file'.
func isText(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	for i := 0; i < n; i++ {
		if data[i] == 0 {
			return false
		}
	}
	return true
}

// relativePath returns path relative to rootDir with forward slashes.
func relativePath(rootDir, path string) string {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
