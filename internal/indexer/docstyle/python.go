package docstyle

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

var (
	sphinxField     = regexp.MustCompile(`^:([a-zA-Z]+)(?:\s+([^:]+?))?:\s*(.*)$`)
	numpyUnderline  = regexp.MustCompile(`^-{3,}\s*$`)
	googleSection   = regexp.MustCompile(`^([A-Z][A-Za-z ]*):\s*$`)
	googleParam     = regexp.MustCompile(`^\*{0,2}([A-Za-z_][A-Za-z0-9_]*)\s*(?:\(([^)]*)\))?\s*:\s*(.*)$`)
	numpyParam      = regexp.MustCompile(`^\*{0,2}([A-Za-z_][A-Za-z0-9_, *]*?)\s*:\s*(.*)$`)
	sphinxDirective = regexp.MustCompile(`^\.\.\s+([a-z-]+)::\s*(.*)$`)
)

// PythonStyle names one of the three docstring conventions.
type PythonStyle string

const (
	StyleGoogle PythonStyle = "google"
	StyleSphinx PythonStyle = "sphinx"
	StyleNumPy  PythonStyle = "numpy"
)

// DetectPythonStyle guesses the convention a docstring is written in.
func DetectPythonStyle(doc string) PythonStyle {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if sphinxField.MatchString(trimmed) && isSphinxKey(trimmed) {
			return StyleSphinx
		}
		if i > 0 && numpyUnderline.MatchString(trimmed) && strings.TrimSpace(lines[i-1]) != "" {
			return StyleNumPy
		}
	}
	return StyleGoogle
}

func isSphinxKey(line string) bool {
	m := sphinxField.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	switch m[1] {
	case "param", "parameter", "arg", "argument", "key", "keyword", "type",
		"returns", "return", "rtype", "raises", "raise", "except", "exception",
		"yields", "yield", "ytype":
		return true
	}
	return false
}

// Python parses a docstring in whichever convention it appears to use.
func Python(doc string) *extraction.DocSections {
	switch DetectPythonStyle(doc) {
	case StyleSphinx:
		return Sphinx(doc)
	case StyleNumPy:
		return NumPy(doc)
	default:
		return Google(doc)
	}
}

// Google parses "Args:" / "Returns:" / "Raises:" indented key blocks.
func Google(doc string) *extraction.DocSections {
	d := &extraction.DocSections{}
	doc = Dedent(doc)

	var summary []string
	section := ""
	var body []string
	flush := func() {
		if section != "" {
			applyPythonSection(d, section, body, parseGoogleEntries)
		}
		body = nil
	}

	for _, line := range strings.Split(doc, "\n") {
		if indentOf(line) == 0 {
			if m := googleSection.FindStringSubmatch(line); m != nil && knownSection(m[1]) {
				flush()
				section = strings.ToLower(m[1])
				continue
			}
		}
		if section == "" {
			summary = append(summary, line)
			continue
		}
		body = append(body, line)
	}
	flush()
	d.Summary = firstParagraph(strings.Join(summary, "\n"))
	return result(d)
}

// NumPy parses sections whose headers are underlined with dashes.
func NumPy(doc string) *extraction.DocSections {
	d := &extraction.DocSections{}
	lines := strings.Split(Dedent(doc), "\n")

	var summary []string
	section := ""
	var body []string
	flush := func() {
		if section != "" {
			applyPythonSection(d, section, body, parseNumPyEntries)
		}
		body = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if i+1 < len(lines) && strings.TrimSpace(line) != "" && numpyUnderline.MatchString(strings.TrimSpace(lines[i+1])) {
			flush()
			section = strings.ToLower(strings.TrimSpace(line))
			i++
			continue
		}
		if section == "" {
			summary = append(summary, line)
			continue
		}
		body = append(body, line)
	}
	flush()
	d.Summary = firstParagraph(strings.Join(summary, "\n"))
	return result(d)
}

// Sphinx parses ":param x:" / ":returns:" / ":raises E:" field lists.
func Sphinx(doc string) *extraction.DocSections {
	d := &extraction.DocSections{}
	lines := strings.Split(Dedent(doc), "\n")

	var summary []string
	type field struct {
		key, arg string
		text     []string
	}
	var fields []field
	inFields := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := sphinxField.FindStringSubmatch(trimmed); m != nil {
			fields = append(fields, field{key: m[1], arg: strings.TrimSpace(m[2]), text: []string{m[3]}})
			inFields = true
			continue
		}
		if m := sphinxDirective.FindStringSubmatch(trimmed); m != nil {
			fields = append(fields, field{key: ".." + m[1], text: []string{m[2]}})
			inFields = true
			continue
		}
		if !inFields {
			summary = append(summary, line)
			continue
		}
		if trimmed != "" {
			last := &fields[len(fields)-1]
			last.text = append(last.text, trimmed)
		}
	}
	d.Summary = firstParagraph(strings.Join(summary, "\n"))

	for _, f := range fields {
		text := strings.TrimSpace(strings.Join(f.text, " "))
		switch f.key {
		case "param", "parameter", "arg", "argument", "key", "keyword":
			// ":param int x:" carries an inline type.
			typ, name := "", f.arg
			if i := strings.LastIndexByte(f.arg, ' '); i >= 0 {
				typ, name = strings.TrimSpace(f.arg[:i]), f.arg[i+1:]
			}
			if name == "" {
				d.Tags = append(d.Tags, extraction.RawTag{Name: f.key, Text: text})
				continue
			}
			d.SetParam(name, text)
			if typ != "" {
				d.SetParamType(name, typ)
			}
		case "type":
			if f.arg != "" {
				d.SetParamType(f.arg, text)
			}
		case "returns", "return":
			d.Returns = text
		case "rtype":
			d.ReturnType = text
		case "raises", "raise", "except", "exception":
			if f.arg == "" {
				d.Tags = append(d.Tags, extraction.RawTag{Name: f.key, Text: text})
				continue
			}
			d.SetRaise(f.arg, text)
		case "yields", "yield":
			d.Yields = text
		case "..note", "..warning", "..tip", "..important":
			appendNote(d, text)
		case "..deprecated":
			d.Deprecated = text
		case "..seealso":
			d.See = append(d.See, text)
		case "..code-block", "..code":
			d.Examples = append(d.Examples, strings.Join(f.text[1:], "\n"))
		default:
			d.Tags = append(d.Tags, extraction.RawTag{Name: strings.TrimPrefix(f.key, ".."), Text: text})
		}
	}
	return result(d)
}

func knownSection(name string) bool {
	switch strings.ToLower(name) {
	case "args", "arguments", "parameters", "params", "keyword args", "keyword arguments",
		"other parameters", "kwargs", "returns", "return", "yields", "yield",
		"raises", "raise", "exceptions", "except", "examples", "example",
		"note", "notes", "warning", "warnings", "see also", "deprecated",
		"attributes", "todo", "references", "methods":
		return true
	}
	return false
}

type pythonEntry struct {
	name, typ, desc string
}

type entryParser func(lines []string) []pythonEntry

func applyPythonSection(d *extraction.DocSections, section string, lines []string, parse entryParser) {
	body := joinTrimmed(lines)
	switch section {
	case "args", "arguments", "parameters", "params", "keyword args", "keyword arguments", "other parameters", "kwargs":
		for _, e := range parse(lines) {
			d.SetParam(e.name, e.desc)
			if e.typ != "" {
				d.SetParamType(e.name, e.typ)
			}
		}
	case "returns", "return":
		typ, desc := returnEntry(lines, parse)
		d.ReturnType = typ
		d.Returns = desc
	case "yields", "yield":
		_, desc := returnEntry(lines, parse)
		d.Yields = desc
	case "raises", "raise", "exceptions", "except":
		for _, e := range parse(lines) {
			d.SetRaise(e.name, e.desc)
		}
	case "examples", "example":
		if body != "" {
			d.Examples = append(d.Examples, body)
		}
	case "note", "notes", "warning", "warnings":
		appendNote(d, body)
	case "see also":
		for _, line := range lines {
			if s := strings.TrimSpace(line); s != "" {
				d.See = append(d.See, s)
			}
		}
	case "deprecated":
		d.Deprecated = body
	default:
		d.Tags = append(d.Tags, extraction.RawTag{Name: section, Text: body})
	}
}

// returnEntry reads a Returns/Yields block: "type: desc" (Google), or a
// type line followed by an indented description (NumPy).
func returnEntry(lines []string, parse entryParser) (typ, desc string) {
	entries := parse(lines)
	if len(entries) == 1 && entries[0].typ != "" && entries[0].desc != "" {
		return entries[0].typ, entries[0].desc
	}
	body := joinTrimmed(lines)
	first, rest, _ := strings.Cut(body, "\n")
	if strings.Contains(first, ":") {
		t, dsc, _ := strings.Cut(first, ":")
		if isTypeLike(strings.TrimSpace(t)) {
			return strings.TrimSpace(t), strings.TrimSpace(strings.TrimSpace(dsc) + " " + strings.TrimSpace(rest))
		}
	}
	if rest != "" && isTypeLike(strings.TrimSpace(first)) {
		return strings.TrimSpace(first), joinTrimmed(strings.Split(rest, "\n"))
	}
	return "", strings.Join(strings.Fields(body), " ")
}

func isTypeLike(s string) bool {
	if s == "" || strings.HasSuffix(s, ".") {
		return false
	}
	return len(strings.Fields(s)) <= 3
}

// parseGoogleEntries reads "name (type): description" entries with indented
// continuation lines.
func parseGoogleEntries(lines []string) []pythonEntry {
	var out []pythonEntry
	base := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ind := indentOf(line)
		if base < 0 {
			base = ind
		}
		trimmed := strings.TrimSpace(line)
		if ind <= base {
			if m := googleParam.FindStringSubmatch(trimmed); m != nil {
				out = append(out, pythonEntry{name: m[1], typ: strings.TrimSpace(m[2]), desc: strings.TrimSpace(m[3])})
				continue
			}
			// Raises blocks list bare exception names.
			name, desc := splitFirstWord(trimmed)
			out = append(out, pythonEntry{name: strings.TrimSuffix(name, ":"), desc: desc})
			continue
		}
		if len(out) > 0 {
			last := &out[len(out)-1]
			last.desc = strings.TrimSpace(last.desc + " " + trimmed)
		}
	}
	return out
}

// parseNumPyEntries reads "name : type" lines followed by indented descriptions.
func parseNumPyEntries(lines []string) []pythonEntry {
	var out []pythonEntry
	base := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ind := indentOf(line)
		if base < 0 {
			base = ind
		}
		trimmed := strings.TrimSpace(line)
		if ind <= base {
			if m := numpyParam.FindStringSubmatch(trimmed); m != nil {
				out = append(out, pythonEntry{name: strings.TrimSpace(m[1]), typ: strings.TrimSpace(m[2])})
			} else {
				out = append(out, pythonEntry{name: trimmed})
			}
			continue
		}
		if len(out) > 0 {
			last := &out[len(out)-1]
			last.desc = strings.TrimSpace(last.desc + " " + trimmed)
		}
	}
	// A returns entry with no "name :" prefix is a bare type.
	for i := range out {
		if out[i].typ == "" && out[i].desc != "" && isTypeLike(out[i].name) {
			out[i].typ = out[i].name
		}
	}
	return out
}
