package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// ownerFrame is one open container in a document.
type ownerFrame struct {
	level int
	path  string
	line  int
}

// ownerStack tracks the open containers of a headed document or a nested
// configuration file while it is scanned in order.
type ownerStack struct {
	sep string
	// qualified containers already carry their full path as their name
	// (TOML table keys); their path is not joined onto the parent's.
	qualified bool
	// related reports whether an open container may enclose a new one.
	// Nil treats every shallower container as a parent.
	related func(parent, child string) bool

	frames []ownerFrame
}

func newOwnerStack(sep string) *ownerStack {
	return &ownerStack{sep: sep}
}

// newTableStack returns a stack for dotted table keys, where a table only
// nests inside a table whose key is a prefix of its own.
func newTableStack() *ownerStack {
	return &ownerStack{
		sep:       ".",
		qualified: true,
		related: func(parent, child string) bool {
			return strings.HasPrefix(child, parent+".")
		},
	}
}

// open closes every container at the same or a deeper level (or unrelated
// to name), then opens name and returns its path.
func (s *ownerStack) open(level int, name string, line int) string {
	for len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		if top.level < level && (s.related == nil || s.related(top.path, name)) {
			break
		}
		s.frames = s.frames[:len(s.frames)-1]
	}
	path := name
	if len(s.frames) > 0 && !s.qualified {
		path = s.frames[len(s.frames)-1].path + s.sep + name
	}
	s.frames = append(s.frames, ownerFrame{level: level, path: path, line: line})
	return path
}

// parent returns the path of the container enclosing the most recently
// opened one.
func (s *ownerStack) parent() string {
	if len(s.frames) < 2 {
		return ""
	}
	return s.frames[len(s.frames)-2].path
}

// owner returns the path of the nearest open container that starts before
// line.
func (s *ownerStack) owner(line int) string {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].line < line {
			return s.frames[i].path
		}
	}
	return ""
}

// reset closes every container.
func (s *ownerStack) reset() {
	s.frames = s.frames[:0]
}

// assignOwner sets a leaf's owner to the nearest open container.
func (s *ownerStack) assignOwner(it *extraction.Item) {
	if owner := s.owner(it.StartLine); owner != "" {
		it.Metadata.OwnerName = owner
		it.Metadata.OwnerKind = extraction.KindModule
	}
}

// section is a heading's position, used to compute where it ends.
type section struct {
	item  int // index into file.items
	level int
	line  int
}

// closeSections extends each heading item to the line before the next
// heading of the same or a shallower level, or to the end of the file.
func (f *file) closeSections(sections []section) {
	last := f.lineCount()
	for i, s := range sections {
		end := last
		for _, next := range sections[i+1:] {
			if next.level <= s.level {
				end = next.line - 1
				break
			}
		}
		end = f.trimTrailingBlank(s.line, end)
		it := &f.items[s.item]
		it.EndLine = end
		if f.opts.IncludeSource {
			it.Source = f.snippet(it.StartLine, it.EndLine)
		}
	}
}

// trimTrailingBlank moves end back over blank lines, never before start.
func (f *file) trimTrailingBlank(start, end int) int {
	for end > start && end <= len(f.lines) && strings.TrimSpace(f.lines[end-1]) == "" {
		end--
	}
	return end
}
