package parsers

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// extractMarkdown walks the top-level blocks of a CommonMark (+GFM) document.
// Headings become modules with a slash-separated path; lists, code blocks,
// tables and block quotes become property leaves owned by the open heading;
// paragraphs document the heading above them.
func extractMarkdown(_ *Extractor, f *file) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(f.src))

	var blocks []ast.Node
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, n)
	}
	starts := make([]int, len(blocks))
	prevEnd := 0
	for i, n := range blocks {
		starts[i] = f.markdownStart(n, prevEnd)
		prevEnd = starts[i]
	}

	doc := newHeadedDoc(f)
	for i, n := range blocks {
		start := starts[i]
		end := f.lineCount()
		if i+1 < len(blocks) {
			end = starts[i+1] - 1
		}
		end = f.trimTrailingBlank(start, end)

		switch node := n.(type) {
		case *ast.Heading:
			doc.heading(node.Level, inlineText(node, f.src), start, f.lineText(start))

		case *ast.Paragraph:
			doc.describe(inlineText(node, f.src))

		case *ast.List:
			entries := listEntries(node, f.src)
			if len(entries) == 0 {
				continue
			}
			tag := "list"
			if node.IsOrdered() {
				tag = "ordered_list"
			}
			doc.leaf(extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      blockName(entries[0]),
				Doc:       strings.Join(entries, "\n"),
				StartLine: start,
				EndLine:   end,
				Metadata:  extraction.Metadata{TagName: tag},
			})

		case *ast.FencedCodeBlock:
			lang := string(node.Language(f.src))
			name := lang
			if name == "" {
				name = "code"
			}
			doc.leaf(extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      name,
				Signature: f.lineText(start),
				StartLine: start,
				EndLine:   end,
				Metadata:  extraction.Metadata{TagName: "code", Language: lang},
			})

		case *ast.CodeBlock:
			doc.leaf(extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      "code",
				StartLine: start,
				EndLine:   end,
				Metadata:  extraction.Metadata{TagName: "code"},
			})

		case *ast.Blockquote:
			quote := blockText(node, f.src)
			doc.leaf(extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      blockName(quote),
				Doc:       quote,
				StartLine: start,
				EndLine:   end,
				Metadata:  extraction.Metadata{TagName: "blockquote"},
			})

		case *extast.Table:
			header := tableHeader(node, f.src)
			doc.leaf(extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      blockName(strings.Join(header, " | ")),
				Signature: f.lineText(start),
				StartLine: start,
				EndLine:   end,
				Metadata:  extraction.Metadata{TagName: "table", Fields: header},
			})
		}
	}
	doc.done()
	return nil
}

// markdownStart returns the first line of a top-level block. Container
// blocks have no lines of their own, so the first descendant segment is
// used; fenced code starts one line above its content.
func (f *file) markdownStart(n ast.Node, prevStart int) int {
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		if fenced.Info != nil {
			return f.lineOf(fenced.Info.Segment.Start)
		}
		if fenced.Lines().Len() > 0 {
			return f.lineOf(fenced.Lines().At(0).Start) - 1
		}
	}
	if off, ok := firstSegment(n); ok {
		return f.lineOf(off)
	}
	// No text at all: take the next non-blank line.
	for line := prevStart + 1; line <= len(f.lines); line++ {
		if strings.TrimSpace(f.lines[line-1]) != "" {
			return line
		}
	}
	return prevStart + 1
}

func firstSegment(n ast.Node) (int, bool) {
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := firstSegment(c); ok {
			return off, true
		}
	}
	return 0, false
}

// inlineText renders the plain text of a node's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// blockText joins the text of each paragraph-like descendant on its own line.
func blockText(n ast.Node, src []byte) string {
	var parts []string
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			if t := inlineText(c, src); t != "" {
				parts = append(parts, t)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(parts, "\n")
}

// listEntries returns the text of each item of a list.
func listEntries(list *ast.List, src []byte) []string {
	var out []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if t := blockText(item, src); t != "" {
			out = append(out, strings.ReplaceAll(t, "\n", " "))
		}
	}
	return out
}

// tableHeader returns the header cell texts of a table.
func tableHeader(table *extast.Table, src []byte) []string {
	var out []string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*extast.TableHeader); !ok {
			continue
		}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			out = append(out, inlineText(cell, src))
		}
	}
	return out
}

// lineText returns a source line without surrounding whitespace.
func (f *file) lineText(line int) string {
	if line < 1 || line > len(f.lines) {
		return ""
	}
	return strings.TrimSpace(f.lines[line-1])
}
