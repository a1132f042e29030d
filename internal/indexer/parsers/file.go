package parsers

import (
	"sort"
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

// file is the state of one extraction call. It never outlives the call.
type file struct {
	lang  extraction.Language
	src   []byte
	lines []string
	opts  Options
	name  string // component name derived from the path, may be empty

	items []extraction.Item
	// anchors maps a declaration node's start byte to the index of the item
	// built from it, so later passes can find that item again.
	anchors map[uint]int

	lineStarts []int // byte offset of each line, built on first use
}

func newFile(lang extraction.Language, src []byte, opts Options) *file {
	return &file{
		lang:    lang,
		src:     src,
		lines:   strings.Split(string(src), "\n"),
		opts:    opts,
		anchors: make(map[uint]int),
	}
}

// add appends an item built from node n, filling its span from the node
// when the builder left it empty.
func (f *file) add(n *cst.Node, it extraction.Item) int {
	if it.StartLine == 0 {
		it.StartLine = n.StartLine()
	}
	if it.EndLine == 0 {
		it.EndLine = n.EndLine()
	}
	idx := f.push(it)
	if n != nil {
		f.anchors[n.StartByte()] = idx
	}
	return idx
}

// push appends an item that has no tree node behind it.
func (f *file) push(it extraction.Item) int {
	if it.StartLine < 1 {
		it.StartLine = 1
	}
	if it.EndLine < it.StartLine {
		it.EndLine = it.StartLine
	}
	if it.Visibility == "" {
		it.Visibility = visibility.Default(f.lang)
	}
	if it.Source == "" && f.opts.IncludeSource {
		it.Source = f.snippet(it.StartLine, it.EndLine)
	}
	f.items = append(f.items, it)
	return len(f.items) - 1
}

// at returns the item built from node n, if any.
func (f *file) at(n *cst.Node) *extraction.Item {
	if n == nil {
		return nil
	}
	idx, ok := f.anchors[n.StartByte()]
	if !ok {
		return nil
	}
	return &f.items[idx]
}

// snippet returns the lines of a span, truncated to the snippet budget.
func (f *file) snippet(start, end int) string {
	if start < 1 || start > len(f.lines) {
		return ""
	}
	if end > len(f.lines) {
		end = len(f.lines)
	}
	truncated := false
	if limit := f.opts.SnippetMaxLines; limit > 0 && end-start+1 > limit {
		end = start + limit - 1
		truncated = true
	}
	text := strings.Join(f.lines[start-1:end], "\n")
	if truncated {
		text += "\n" + extraction.TruncationMarker
	}
	return text
}

// lineCount returns the number of lines in the source, ignoring a final
// trailing newline.
func (f *file) lineCount() int {
	n := len(f.lines)
	if n > 1 && f.lines[n-1] == "" {
		n--
	}
	return n
}

// finish clamps spans to the file and returns the final items.
func (f *file) finish() []extraction.Item {
	last := f.lineCount()
	if last < 1 {
		last = 1
	}
	for i := range f.items {
		it := &f.items[i]
		if it.StartLine > last {
			it.StartLine = last
		}
		if it.EndLine > last {
			it.EndLine = last
		}
		if it.EndLine < it.StartLine {
			it.EndLine = it.StartLine
		}
	}
	if f.items == nil {
		return []extraction.Item{}
	}
	return f.items
}

// lineOf returns the 1-based line holding byte offset off.
func (f *file) lineOf(off int) int {
	if f.lineStarts == nil {
		f.lineStarts = []int{0}
		for i, b := range f.src {
			if b == '\n' {
				f.lineStarts = append(f.lineStarts, i+1)
			}
		}
	}
	// The line is the last start at or before off.
	return sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > off })
}
