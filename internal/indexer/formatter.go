package indexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/storage"
)

// Formatter renders extraction results as human-readable text.
type Formatter interface {
	// FormatFile lists a file's items, members indented under their owner.
	FormatFile(rec *storage.FileRecord) string

	// FormatStats summarizes an indexing run.
	FormatStats(stats *ProcessingStats) string
}

// formatter implements the Formatter interface.
type formatter struct{}

// NewFormatter creates a new formatter instance.
func NewFormatter() Formatter {
	return &formatter{}
}

// FormatFile converts one file's items into an outline.
func (f *formatter) FormatFile(rec *storage.FileRecord) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s (%s, %s)\n", rec.Path, rec.Language, pluralize(len(rec.Items), "item")))
	for _, it := range rec.Items {
		indent := "  "
		if it.Metadata.OwnerName != "" {
			indent = "    "
		}

		lineRange := formatLineRange(it.StartLine, it.EndLine)
		sb.WriteString(fmt.Sprintf("%s%s %s %s %s\n", indent, it.Kind, it.Name, lineRange, it.Visibility))

		if it.Signature != "" && it.Signature != it.Name {
			sb.WriteString(fmt.Sprintf("%s  %s\n", indent, firstLine(it.Signature)))
		}
		if it.Doc != "" {
			sb.WriteString(fmt.Sprintf("%s  # %s\n", indent, firstLine(it.Doc)))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatStats converts run statistics into a short report.
func (f *formatter) FormatStats(stats *ProcessingStats) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Files: %d extracted", stats.FilesProcessed))
	if stats.FilesUnchanged > 0 {
		sb.WriteString(fmt.Sprintf(", %d unchanged", stats.FilesUnchanged))
	}
	if stats.FilesRemoved > 0 {
		sb.WriteString(fmt.Sprintf(", %d removed", stats.FilesRemoved))
	}
	if stats.FilesSkipped > 0 {
		sb.WriteString(fmt.Sprintf(", %d skipped", stats.FilesSkipped))
	}
	if n := stats.ParseErrors + stats.ReadErrors; n > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", n))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Items: %d\n", stats.TotalItems))
	kinds := make([]string, 0, len(stats.ItemsByKind))
	for k := range stats.ItemsByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		sb.WriteString(fmt.Sprintf("  %-12s %d\n", k, stats.ItemsByKind[extraction.Kind(k)]))
	}

	sb.WriteString(fmt.Sprintf("Time: %.2fs", stats.ProcessingTime.Seconds()))
	return sb.String()
}

// formatLineRange formats line numbers into a human-readable range.
func formatLineRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("(line %d)", start)
	}
	return fmt.Sprintf("(lines %d-%d)", start, end)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
