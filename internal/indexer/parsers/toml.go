package parsers

import (
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// tomlEntry is one parsed expression located in the source.
type tomlEntry struct {
	kind  unstable.Kind
	key   []string
	value string
	line  int
}

// extractTOML emits tables and array tables as modules named by their full
// dotted key, and every key/value as a property qualified by its table.
func extractTOML(_ *Extractor, f *file) error {
	entries, err := f.parseTOML()
	if err != nil {
		return extraction.NewParseError(f.lang, err)
	}

	stack := newTableStack()
	table := ""
	for i, e := range entries {
		end := f.lineCount()
		if i+1 < len(entries) {
			end = entries[i+1].line - 1
		}
		end = f.trimTrailingComments(e.line, end)
		name := strings.Join(e.key, ".")
		doc := f.hashComments(e.line)

		switch e.kind {
		case unstable.Table, unstable.ArrayTable:
			path := stack.open(len(e.key), name, e.line)
			table = path
			tag := "table"
			if e.kind == unstable.ArrayTable {
				tag = "array_table"
			}
			it := extraction.Item{
				Kind:      extraction.KindModule,
				Name:      path,
				Signature: f.lineText(e.line),
				Doc:       doc,
				StartLine: e.line,
				EndLine:   f.tableEnd(entries, i),
				Metadata:  extraction.Metadata{Path: path, TagName: tag},
			}
			if parent := stack.parent(); parent != "" {
				it.Metadata.OwnerName = parent
				it.Metadata.OwnerKind = extraction.KindModule
			}
			f.push(it)

		case unstable.KeyValue:
			qualified := name
			if table != "" {
				qualified = table + "." + name
			}
			it := extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      qualified,
				Signature: f.lineText(e.line),
				Doc:       doc,
				StartLine: e.line,
				EndLine:   end,
				Metadata:  extraction.Metadata{Path: table, Value: e.value},
			}
			if table != "" {
				it.Metadata.OwnerName = table
				it.Metadata.OwnerKind = extraction.KindModule
			}
			f.push(it)
		}
	}
	return nil
}

// parseTOML runs the streaming parser and locates each top-level
// expression on its source line.
func (f *file) parseTOML() ([]tomlEntry, error) {
	var p unstable.Parser
	p.Reset(f.src)

	var entries []tomlEntry
	cursor := 1
	for p.NextExpression() {
		expr := p.Expression()
		e := tomlEntry{kind: expr.Kind}
		for it := expr.Key(); it.Next(); {
			e.key = append(e.key, string(it.Node().Data))
		}
		if len(e.key) == 0 {
			continue
		}
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			e.line = f.findTOMLLine(cursor, func(line string) bool {
				if expr.Kind == unstable.ArrayTable {
					return strings.HasPrefix(line, "[[")
				}
				return strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "[[")
			})
		case unstable.KeyValue:
			first := e.key[0]
			e.line = f.findTOMLLine(cursor, func(line string) bool {
				return tomlKeyLine(line, first)
			})
			e.value = f.tomlValue(expr.Value(), e.line)
		default:
			continue
		}
		cursor = e.line + 1
		entries = append(entries, e)
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

// findTOMLLine returns the first line at or after from that matches, or
// from itself when none does.
func (f *file) findTOMLLine(from int, match func(string) bool) int {
	for line := from; line <= len(f.lines); line++ {
		trimmed := strings.TrimSpace(f.lines[line-1])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if match(trimmed) {
			return line
		}
	}
	return from
}

// tomlKeyLine reports whether a trimmed line starts a key/value pair whose
// first key part is key, bare or quoted.
func tomlKeyLine(line, key string) bool {
	for _, form := range []string{key, `"` + key + `"`, `'` + key + `'`} {
		if !strings.HasPrefix(line, form) {
			continue
		}
		rest := strings.TrimLeft(line[len(form):], " \t")
		if strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, ".") {
			return true
		}
	}
	return false
}

// tomlValue returns scalar values as parsed and composite values as the
// source text following the equals sign on the key's line.
func (f *file) tomlValue(v *unstable.Node, line int) string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case unstable.Array, unstable.InlineTable:
		text := f.lineText(line)
		if i := strings.IndexByte(text, '='); i >= 0 {
			return strings.TrimSpace(text[i+1:])
		}
		return ""
	}
	return string(v.Data)
}

// tableEnd returns the last line of the table at entries[i]: the line
// before the next table header, or the end of the file.
func (f *file) tableEnd(entries []tomlEntry, i int) int {
	end := f.lineCount()
	for _, next := range entries[i+1:] {
		if next.kind == unstable.Table || next.kind == unstable.ArrayTable {
			end = next.line - 1
			break
		}
	}
	return f.trimTrailingComments(entries[i].line, end)
}

// trimTrailingComments moves end back over blank and comment lines, since
// those document the next entry rather than this one.
func (f *file) trimTrailingComments(start, end int) int {
	for end > start && end <= len(f.lines) {
		trimmed := strings.TrimSpace(f.lines[end-1])
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
		end--
	}
	return end
}

// hashComments returns the contiguous "#" comment block directly above line.
func (f *file) hashComments(line int) string {
	var collected []string
	for l := line - 1; l >= 1; l-- {
		trimmed := strings.TrimSpace(f.lines[l-1])
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		collected = append(collected, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return strings.Join(collected, "\n")
}
