package docstyle

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// tagDialect describes how one @tag convention spells parameter and type info.
type tagDialect int

const (
	dialectJSDoc tagDialect = iota
	dialectJavadoc
	dialectDoxygen
	dialectPHPDoc
	dialectYARD
)

// JSDoc parses /** */ comments using @param {Type} name - desc tags.
func JSDoc(doc string) *extraction.DocSections {
	return parseTagged(doc, dialectJSDoc)
}

// Javadoc parses Java doc comments using @param name desc tags.
func Javadoc(doc string) *extraction.DocSections {
	return parseTagged(doc, dialectJavadoc)
}

// Doxygen parses C-family comments using @tag or \tag commands.
func Doxygen(doc string) *extraction.DocSections {
	return parseTagged(doc, dialectDoxygen)
}

// PHPDoc parses @param Type $name desc style tags.
func PHPDoc(doc string) *extraction.DocSections {
	return parseTagged(doc, dialectPHPDoc)
}

// YARD parses Ruby comments using @param name [Type] desc tags.
func YARD(doc string) *extraction.DocSections {
	return parseTagged(doc, dialectYARD)
}

type rawTag struct {
	name  string
	lines []string
}

func (t rawTag) text() string {
	return strings.TrimSpace(strings.Join(t.lines, "\n"))
}

func parseTagged(doc string, dialect tagDialect) *extraction.DocSections {
	d := &extraction.DocSections{}

	var summary []string
	var tags []rawTag
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if name, rest, ok := tagLine(trimmed, dialect); ok {
			tags = append(tags, rawTag{name: name, lines: []string{rest}})
			continue
		}
		if len(tags) == 0 {
			summary = append(summary, line)
			continue
		}
		last := &tags[len(tags)-1]
		if last.name == "example" || last.name == "code" {
			last.lines = append(last.lines, line)
		} else {
			last.lines = append(last.lines, trimmed)
		}
	}
	d.Summary = firstParagraph(strings.Join(summary, "\n"))

	for _, t := range tags {
		applyTag(d, t, dialect)
	}
	return result(d)
}

func tagLine(line string, dialect tagDialect) (name, rest string, ok bool) {
	if line == "" {
		return "", "", false
	}
	switch {
	case line[0] == '@':
	case line[0] == '\\' && dialect == dialectDoxygen:
	default:
		return "", "", false
	}
	body := line[1:]
	end := strings.IndexAny(body, " \t")
	if end < 0 {
		end = len(body)
	}
	name = body[:end]
	// Doxygen direction markers: @param[in] name
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	if name == "" || !isTagName(name) {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(body[end:]), true
}

func isTagName(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func applyTag(d *extraction.DocSections, t rawTag, dialect tagDialect) {
	text := t.text()
	switch t.name {
	case "param", "arg", "argument":
		name, typ, desc := parseParamTag(text, dialect)
		if name == "" {
			d.Tags = append(d.Tags, extraction.RawTag{Name: t.name, Text: text})
			return
		}
		d.SetParam(name, desc)
		if typ != "" {
			d.SetParamType(name, typ)
		}
	case "return", "returns", "result":
		typ, desc := parseTypedText(text, dialect)
		d.Returns = desc
		if typ != "" {
			d.ReturnType = typ
		}
	case "throws", "throw", "exception", "raise", "raises":
		typ, desc := parseTypedText(text, dialect)
		if typ == "" {
			typ, desc = splitFirstWord(desc)
		}
		if typ == "" {
			d.Tags = append(d.Tags, extraction.RawTag{Name: t.name, Text: text})
			return
		}
		d.SetRaise(typ, desc)
	case "yield", "yields", "yieldreturn":
		_, desc := parseTypedText(text, dialect)
		d.Yields = desc
	case "example", "code":
		if ex := trimBlankLines(Dedent("\n" + strings.Join(t.lines, "\n"))); ex != "" {
			d.Examples = append(d.Examples, ex)
		}
	case "deprecated":
		if text == "" {
			text = "deprecated"
		}
		d.Deprecated = text
	case "see", "link", "sa":
		if text != "" {
			d.See = append(d.See, text)
		}
	case "note", "warning", "remark", "remarks", "attention", "todo":
		appendNote(d, text)
	case "brief", "summary", "description", "desc":
		if d.Summary == "" {
			d.Summary = firstParagraph(text)
		} else {
			appendNote(d, text)
		}
	case "var", "type":
		typ, desc := parseTypedText(text, dialect)
		if typ == "" {
			typ, desc = splitFirstWord(desc)
		}
		d.ReturnType = typ
		if desc != "" {
			d.Returns = desc
		}
	default:
		d.Tags = append(d.Tags, extraction.RawTag{Name: t.name, Text: text})
	}
}

// parseParamTag splits a parameter tag body into name, type and description.
func parseParamTag(text string, dialect tagDialect) (name, typ, desc string) {
	switch dialect {
	case dialectJSDoc:
		typ, text = takeBraced(text, '{', '}')
		name, desc = splitFirstWord(text)
		name = strings.Trim(name, "[]")
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
		}
	case dialectPHPDoc:
		first, rest := splitFirstWord(text)
		if strings.HasPrefix(first, "$") || strings.HasPrefix(first, "...$") || strings.HasPrefix(first, "&$") {
			name, desc = first, rest
		} else {
			typ = first
			name, desc = splitFirstWord(rest)
		}
		name = strings.TrimLeft(name, ".&$")
	case dialectYARD:
		name, text = splitFirstWord(text)
		typ, desc = takeBraced(text, '[', ']')
		if typ == "" {
			// @param [Type] name desc is also accepted by YARD.
			if t, rest := takeBraced(name+" "+text, '[', ']'); t != "" {
				typ = t
				name, desc = splitFirstWord(rest)
			}
		}
	default:
		name, desc = splitFirstWord(text)
	}
	desc = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(desc), "-"))
	return name, typ, desc
}

// parseTypedText extracts the leading type of a return/throws style tag.
func parseTypedText(text string, dialect tagDialect) (typ, desc string) {
	switch dialect {
	case dialectJSDoc:
		typ, desc = takeBraced(text, '{', '}')
	case dialectYARD:
		typ, desc = takeBraced(text, '[', ']')
	case dialectPHPDoc:
		typ, desc = splitFirstWord(text)
	default:
		desc = text
	}
	return typ, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(desc), "-"))
}

// takeBraced removes a leading delimited group, honouring nesting.
func takeBraced(text string, opening, closing byte) (inner, rest string) {
	text = strings.TrimSpace(text)
	if text == "" || text[0] != opening {
		return "", text
	}
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[1:i]), strings.TrimSpace(text[i+1:])
			}
		}
	}
	return "", text
}

func splitFirstWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	i := strings.IndexAny(text, " \t\n")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}
