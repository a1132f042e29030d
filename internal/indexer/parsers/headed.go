package parsers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// headedDoc builds the items of a document organised by headings: each
// heading is a module whose path nests under the open headings above it,
// and every other block is a leaf owned by the nearest open heading.
type headedDoc struct {
	f        *file
	stack    *ownerStack
	sections []section
}

func newHeadedDoc(f *file) *headedDoc {
	return &headedDoc{f: f, stack: newOwnerStack("/")}
}

// heading opens a section and returns the index of its item.
func (h *headedDoc) heading(level int, title string, line int, signature string) int {
	title = strings.TrimSpace(title)
	if title == "" {
		return -1
	}
	path := h.stack.open(level, title, line)
	it := extraction.Item{
		Kind:      extraction.KindModule,
		Name:      title,
		Signature: strings.TrimSpace(signature),
		StartLine: line,
		EndLine:   line,
		Metadata: extraction.Metadata{
			Path:    path,
			TagName: fmt.Sprintf("h%d", level),
		},
	}
	if parent := h.stack.parent(); parent != "" {
		it.Metadata.OwnerName = parent
		it.Metadata.OwnerKind = extraction.KindModule
	}
	idx := h.f.push(it)
	h.sections = append(h.sections, section{item: idx, level: level, line: line})
	return idx
}

// leaf adds a non-heading block owned by the nearest open heading.
func (h *headedDoc) leaf(it extraction.Item) int {
	h.stack.assignOwner(&it)
	it.Metadata.Path = it.Metadata.OwnerName
	return h.f.push(it)
}

// describe appends a paragraph to the documentation of the open heading.
func (h *headedDoc) describe(text string) {
	if len(h.sections) == 0 {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	it := &h.f.items[h.sections[len(h.sections)-1].item]
	if it.Doc == "" {
		it.Doc = text
		return
	}
	it.Doc += "\n\n" + text
}

// done fixes each heading's span to cover its section.
func (h *headedDoc) done() {
	h.f.closeSections(h.sections)
}

// blockName derives a short display name from a block's text.
func blockName(text string) string {
	text = collapse(text)
	const limit = 60
	if len(text) <= limit {
		return text
	}
	cut := strings.LastIndexByte(text[:limit], ' ')
	if cut <= 0 {
		cut = limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return text[:cut] + "..."
}
