package storage

import (
	"encoding/json"
	"fmt"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// EncodeMetadata serializes item metadata for the metadata_json column.
// Empty metadata encodes as "{}".
func EncodeMetadata(md *extraction.Metadata) (string, error) {
	data, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(data), nil
}

// DecodeMetadata reverses EncodeMetadata. An empty string decodes to zero
// metadata.
func DecodeMetadata(data string) (extraction.Metadata, error) {
	var md extraction.Metadata
	if data == "" {
		return md, nil
	}
	if err := json.Unmarshal([]byte(data), &md); err != nil {
		return md, fmt.Errorf("invalid metadata json: %w", err)
	}
	return md, nil
}
