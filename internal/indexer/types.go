package indexer

import (
	"time"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// ProcessingStats tracks statistics about one indexing run.
type ProcessingStats struct {
	FilesDiscovered int `json:"files_discovered"`
	FilesProcessed  int `json:"files_processed"` // extracted or served from the cache
	FilesCached     int `json:"files_cached"`    // served from the result cache
	FilesUnchanged  int `json:"files_unchanged"` // hash matched the stored snapshot
	FilesRemoved    int `json:"files_removed"`
	FilesSkipped    int `json:"files_skipped"` // binary or unknown extension
	ParseErrors     int `json:"parse_errors"`
	ReadErrors      int `json:"read_errors"`
	TotalItems      int `json:"total_items"`

	ItemsByKind    map[extraction.Kind]int     `json:"items_by_kind"`
	ItemsByLang    map[extraction.Language]int `json:"items_by_language"`
	ProcessingTime time.Duration               `json:"processing_time"`
}

func newProcessingStats() *ProcessingStats {
	return &ProcessingStats{
		ItemsByKind: make(map[extraction.Kind]int),
		ItemsByLang: make(map[extraction.Language]int),
	}
}

// add folds other into s.
func (s *ProcessingStats) add(other *ProcessingStats) {
	s.FilesDiscovered += other.FilesDiscovered
	s.FilesProcessed += other.FilesProcessed
	s.FilesCached += other.FilesCached
	s.FilesUnchanged += other.FilesUnchanged
	s.FilesRemoved += other.FilesRemoved
	s.FilesSkipped += other.FilesSkipped
	s.ParseErrors += other.ParseErrors
	s.ReadErrors += other.ReadErrors
	s.TotalItems += other.TotalItems
	for k, n := range other.ItemsByKind {
		s.ItemsByKind[k] += n
	}
	for l, n := range other.ItemsByLang {
		s.ItemsByLang[l] += n
	}
}

// fileOutcome is what happened to one file in a run.
type fileOutcome int

const (
	outcomeExtracted fileOutcome = iota
	outcomeCached
	outcomeUnchanged
	outcomeRemoved
	outcomeSkipped
	outcomeParseError
	outcomeReadError
)
