// Package docstyle turns raw documentation comments into structured sections.
// Every parser is a pure function over text; none of them can fail.
package docstyle

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// StripLineComments removes the first matching marker from each line.
// Markers are tried in order, so longer markers must come first.
func StripLineComments(text string, markers ...string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		for _, m := range markers {
			if strings.HasPrefix(trimmed, m) {
				trimmed = strings.TrimPrefix(trimmed, m)
				trimmed = strings.TrimPrefix(trimmed, " ")
				break
			}
		}
		lines[i] = strings.TrimRight(trimmed, " \t\r")
	}
	return trimBlankLines(strings.Join(lines, "\n"))
}

// StripBlockComment removes /** */ style delimiters and leading asterisks.
func StripBlockComment(text string) string {
	text = strings.TrimSpace(text)
	for _, open := range []string{"/**", "/*!", "/*"} {
		if strings.HasPrefix(text, open) {
			text = text[len(open):]
			break
		}
	}
	text = strings.TrimSuffix(text, "*/")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "*") {
			trimmed = strings.TrimPrefix(trimmed, "*")
			trimmed = strings.TrimPrefix(trimmed, " ")
		}
		lines[i] = strings.TrimRight(trimmed, " \t\r")
	}
	return trimBlankLines(strings.Join(lines, "\n"))
}

// StripComment picks block or line stripping based on the comment's opener.
func StripComment(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/*") {
		return StripBlockComment(trimmed)
	}
	return StripLineComments(trimmed, "///", "//!", "//", "#!", "##", "#", "--", ";")
}

// Dedent removes the common leading indentation, ignoring the first line the
// way Python's inspect.cleandoc does.
func Dedent(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\t", "    "), "\n")
	indent := -1
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if i == 0 {
			lines[i] = strings.TrimSpace(line)
			continue
		}
		if indent > 0 && len(line) >= indent {
			line = line[indent:]
		}
		lines[i] = strings.TrimRight(line, " \r")
	}
	return trimBlankLines(strings.Join(lines, "\n"))
}

func trimBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// firstParagraph returns text up to the first blank line, joined onto one line.
func firstParagraph(text string) string {
	var parts []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if strings.TrimSpace(line) == "" {
			break
		}
		parts = append(parts, strings.TrimSpace(line))
	}
	return strings.Join(parts, " ")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func joinTrimmed(lines []string) string {
	return trimBlankLines(Dedent("\n" + strings.Join(lines, "\n")))
}

func appendNote(d *extraction.DocSections, text string) {
	if text = strings.TrimSpace(text); text != "" {
		d.Notes = append(d.Notes, text)
	}
}

func result(d *extraction.DocSections) *extraction.DocSections {
	if d.IsEmpty() {
		return nil
	}
	return d
}
