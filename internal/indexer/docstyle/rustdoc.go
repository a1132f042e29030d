package docstyle

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

var rustArgPattern = regexp.MustCompile("^[*-]\\s+`?([A-Za-z_][A-Za-z0-9_]*)`?\\s*[-:]?\\s*(.*)$")

// Rustdoc parses markdown doc comments that use "# Section" headers.
func Rustdoc(doc string) *extraction.DocSections {
	d := &extraction.DocSections{}
	sections := splitMarkdownSections(doc)

	for _, s := range sections {
		body := trimBlankLines(strings.Join(s.lines, "\n"))
		switch strings.ToLower(s.header) {
		case "":
			d.Summary = firstParagraph(body)
		case "errors":
			d.Errors = body
		case "panics":
			d.Panics = body
		case "safety":
			d.Safety = body
		case "examples", "example":
			d.Examples = append(d.Examples, codeBlocks(s.lines, body)...)
		case "arguments", "parameters", "params":
			for _, line := range s.lines {
				if m := rustArgPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
					d.SetParam(m[1], strings.TrimSpace(m[2]))
				}
			}
		case "returns", "return":
			d.Returns = body
		case "notes", "note":
			appendNote(d, body)
		case "deprecated":
			d.Deprecated = body
		case "see also":
			d.See = append(d.See, body)
		default:
			d.Tags = append(d.Tags, extraction.RawTag{Name: s.header, Text: body})
		}
	}
	return result(d)
}

type markdownSection struct {
	header string
	lines  []string
}

// splitMarkdownSections splits on ATX headers outside fenced code blocks.
func splitMarkdownSections(doc string) []markdownSection {
	sections := []markdownSection{{}}
	inFence := false
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if header, ok := atxHeader(trimmed); ok && !inFence {
			sections = append(sections, markdownSection{header: header})
			continue
		}
		last := &sections[len(sections)-1]
		last.lines = append(last.lines, line)
	}
	return sections
}

// atxHeader reports whether line is a "# Title" header and returns the title.
func atxHeader(line string) (string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) || line[level] != ' ' {
		return "", false
	}
	title := strings.TrimSpace(line[level:])
	return title, title != ""
}

// codeBlocks returns the contents of each fenced block, or the whole body
// when the section has no fences.
func codeBlocks(lines []string, body string) []string {
	var blocks []string
	var current []string
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			if inFence {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inFence = !inFence
			continue
		}
		if inFence {
			current = append(current, line)
		}
	}
	if inFence && len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	if len(blocks) == 0 && body != "" {
		return []string{body}
	}
	return blocks
}
