package docstyle

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// GoDoc parses Go doc comments: a summary paragraph, "Deprecated:" paragraphs
// and indented example blocks.
func GoDoc(doc string) *extraction.DocSections {
	d := &extraction.DocSections{}
	d.Summary = firstParagraph(doc)

	for _, para := range paragraphs(doc) {
		first := strings.TrimSpace(para[0])
		switch {
		case strings.HasPrefix(first, "Deprecated:"):
			d.Deprecated = strings.TrimSpace(strings.TrimPrefix(strings.Join(trimEach(para), " "), "Deprecated:"))
		case strings.HasPrefix(first, "BUG(") || strings.HasPrefix(first, "Note:") || strings.HasPrefix(first, "NOTE:"):
			appendNote(d, strings.Join(trimEach(para), " "))
		case indentOf(para[0]) > 0 && strings.TrimSpace(para[0]) != "":
			d.Examples = append(d.Examples, joinTrimmed(para))
		}
	}
	return result(d)
}

// SvelteComponent parses the body of a <!-- @component --> comment.
func SvelteComponent(doc string) *extraction.DocSections {
	doc = strings.TrimSpace(doc)
	doc = strings.TrimPrefix(doc, "<!--")
	doc = strings.TrimSuffix(doc, "-->")
	doc = strings.TrimSpace(doc)
	doc = strings.TrimSpace(strings.TrimPrefix(doc, "@component"))

	d := &extraction.DocSections{}
	sections := splitMarkdownSections(Dedent("\n" + doc))
	for _, s := range sections {
		body := trimBlankLines(strings.Join(s.lines, "\n"))
		switch strings.ToLower(s.header) {
		case "":
			d.Summary = firstParagraph(body)
			d.Examples = append(d.Examples, codeBlocks(s.lines, "")...)
		case "usage", "example", "examples":
			d.Examples = append(d.Examples, codeBlocks(s.lines, body)...)
		case "props", "properties":
			for _, line := range s.lines {
				if m := rustArgPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
					d.SetParam(m[1], strings.TrimSpace(m[2]))
				}
			}
		default:
			d.Tags = append(d.Tags, extraction.RawTag{Name: s.header, Text: body})
		}
	}
	return result(d)
}

func paragraphs(text string) [][]string {
	var out [][]string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func trimEach(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
