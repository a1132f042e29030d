package parsers

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// extractYAML walks every document of a YAML stream. Mapping keys whose
// values are mappings become modules with dotted paths; all other keys are
// properties owned by the enclosing mapping.
func extractYAML(_ *Extractor, f *file) error {
	dec := yaml.NewDecoder(bytes.NewReader(f.src))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return extraction.NewParseError(f.lang, err)
		}
		f.walkYAMLDocument(&doc)
	}
}

// extractJSON reads a JSON document through the YAML parser, which accepts
// JSON except for tab indentation.
func extractJSON(_ *Extractor, f *file) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(untabIndent(f.src), &doc); err != nil {
		return extraction.NewParseError(f.lang, err)
	}
	f.walkYAMLDocument(&doc)
	return nil
}

func (f *file) walkYAMLDocument(doc *yaml.Node) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}
	f.walkMapping(root, newOwnerStack("."), "", 1)
}

func (f *file) walkMapping(m *yaml.Node, stack *ownerStack, parent string, depth int) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "<<" {
			continue
		}
		doc := yamlComment(key.HeadComment)
		if doc == "" {
			doc = yamlComment(val.HeadComment)
		}
		end := yamlEnd(val)
		if val.Kind == yaml.AliasNode && val.Alias != nil {
			val = val.Alias
		}

		if val.Kind == yaml.MappingNode && depth < f.opts.MaxDepth {
			path := stack.open(depth, key.Value, key.Line)
			it := extraction.Item{
				Kind:      extraction.KindModule,
				Name:      path,
				Signature: f.lineText(key.Line),
				Doc:       doc,
				StartLine: key.Line,
				EndLine:   end,
				Metadata:  extraction.Metadata{Path: path, Fields: mappingKeys(val)},
			}
			if parent != "" {
				it.Metadata.OwnerName = parent
				it.Metadata.OwnerKind = extraction.KindModule
			}
			f.push(it)
			f.walkMapping(val, stack, path, depth+1)
			continue
		}

		name := key.Value
		if parent != "" {
			name = parent + "." + key.Value
		}
		it := extraction.Item{
			Kind:      extraction.KindProperty,
			Name:      name,
			Signature: f.lineText(key.Line),
			Doc:       doc,
			StartLine: key.Line,
			EndLine:   end,
			Metadata: extraction.Metadata{
				Path:  parent,
				Value: yamlValue(val),
			},
		}
		if val.Kind == yaml.MappingNode {
			it.Metadata.Fields = mappingKeys(val)
		}
		if parent != "" {
			it.Metadata.OwnerName = parent
			it.Metadata.OwnerKind = extraction.KindModule
		}
		f.push(it)
	}
}

// yamlValue renders scalars as-is and flat sequences of scalars in flow
// form. Nested structures have no value.
func yamlValue(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return ""
			}
			parts = append(parts, c.Value)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

func mappingKeys(m *yaml.Node) []string {
	var keys []string
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// yamlEnd returns the last line a value node covers.
func yamlEnd(n *yaml.Node) int {
	end := n.Line
	if n.Kind == yaml.ScalarNode && n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		end += strings.Count(strings.TrimRight(n.Value, "\n"), "\n") + 1
	}
	for _, c := range n.Content {
		if e := yamlEnd(c); e > end {
			end = e
		}
	}
	return end
}

func yamlComment(c string) string {
	if c == "" {
		return ""
	}
	return docstyle.StripLineComments(c, "#")
}

// untabIndent replaces the leading tabs of each line with spaces, keeping
// line numbers intact.
func untabIndent(src []byte) []byte {
	if !bytes.Contains(src, []byte("\t")) {
		return src
	}
	lines := bytes.Split(src, []byte("\n"))
	for i, line := range lines {
		n := 0
		for n < len(line) && (line[n] == '\t' || line[n] == ' ') {
			n++
		}
		if n == 0 || !bytes.Contains(line[:n], []byte("\t")) {
			continue
		}
		indent := bytes.ReplaceAll(line[:n], []byte("\t"), []byte("  "))
		lines[i] = append(indent, line[n:]...)
	}
	return bytes.Join(lines, []byte("\n"))
}
