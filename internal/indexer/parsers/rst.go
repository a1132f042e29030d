package parsers

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

var (
	rstDirectiveLine = regexp.MustCompile(`^\.\.\s+([A-Za-z][\w:-]*)::\s*(.*)$`)
	rstBulletLine    = regexp.MustCompile(`^[-*+]\s+(\S.*)$`)
)

// rstStyle identifies a heading adornment. reStructuredText assigns heading
// levels by the order in which styles first appear.
type rstStyle struct {
	char     byte
	overline bool
}

// extractRST scans a reStructuredText document line by line: adorned titles
// become modules, directives and bullet lists become property leaves, and
// plain paragraphs document the open section.
func extractRST(_ *Extractor, f *file) error {
	doc := newHeadedDoc(f)
	lines := f.lines
	var styles []rstStyle
	levelOf := func(s rstStyle) int {
		for i, known := range styles {
			if known == s {
				return i + 1
			}
		}
		styles = append(styles, s)
		return len(styles)
	}

	var para []string
	flushPara := func() {
		if len(para) > 0 {
			doc.describe(strings.Join(para, " "))
			para = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t\r")
		lineNo := i + 1

		if strings.TrimSpace(line) == "" {
			flushPara()
			continue
		}

		// Overlined title: adornment, title, adornment.
		if isAdornment(line, rstAdornmentChars) && i+2 < len(lines) {
			title := strings.TrimRight(lines[i+1], " \t\r")
			under := strings.TrimRight(lines[i+2], " \t\r")
			if under == line && strings.TrimSpace(title) != "" {
				flushPara()
				level := levelOf(rstStyle{char: line[0], overline: true})
				doc.heading(level, strings.TrimSpace(title), lineNo+1, strings.TrimSpace(title))
				i += 2
				continue
			}
		}

		// Underlined title.
		if i+1 < len(lines) && len(para) == 0 {
			under := strings.TrimRight(lines[i+1], " \t\r")
			if isAdornment(under, rstAdornmentChars) && isUnderlineOf(line, under) {
				level := levelOf(rstStyle{char: under[0]})
				doc.heading(level, line, lineNo, line)
				i++
				continue
			}
		}

		if m := rstDirectiveLine.FindStringSubmatch(line); m != nil {
			flushPara()
			end := rstBlockEnd(lines, i)
			name, arg := m[1], strings.TrimSpace(m[2])
			it := extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      name,
				Signature: line,
				Doc:       rstBlockBody(lines, i+1, end),
				StartLine: lineNo,
				EndLine:   end,
				Metadata:  extraction.Metadata{TagName: name, Value: arg},
			}
			if arg != "" {
				it.Name = arg
			}
			if name == "code-block" || name == "code" || name == "sourcecode" {
				it.Metadata.Language = arg
				it.Name = name
			}
			doc.leaf(it)
			i = end - 1
			continue
		}

		if strings.HasPrefix(line, "..") {
			// Comment, target or substitution definition.
			flushPara()
			i = rstBlockEnd(lines, i) - 1
			continue
		}

		if m := rstBulletLine.FindStringSubmatch(line); m != nil && len(para) == 0 {
			end := i
			var entries []string
			for end < len(lines) {
				cur := strings.TrimRight(lines[end], " \t\r")
				if bm := rstBulletLine.FindStringSubmatch(cur); bm != nil {
					entries = append(entries, bm[1])
				} else if cur == "" || !strings.HasPrefix(cur, " ") {
					break
				}
				end++
			}
			doc.leaf(extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      blockName(m[1]),
				Doc:       strings.Join(entries, "\n"),
				StartLine: lineNo,
				EndLine:   end,
				Metadata:  extraction.Metadata{TagName: "list"},
			})
			i = end - 1
			continue
		}

		para = append(para, strings.TrimSpace(line))
	}
	flushPara()
	doc.done()
	return nil
}

// rstBlockEnd returns the 1-based last line of the explicit markup block
// starting at index start: the start line plus following indented or blank
// lines, without trailing blanks.
func rstBlockEnd(lines []string, start int) int {
	last := start
	for j := start + 1; j < len(lines); j++ {
		line := strings.TrimRight(lines[j], " \t\r")
		if line == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			break
		}
		last = j
	}
	return last + 1
}

// rstBlockBody returns the dedented content lines between two indices.
func rstBlockBody(lines []string, from, end int) string {
	if from >= end {
		return ""
	}
	var body []string
	for _, line := range lines[from:end] {
		body = append(body, strings.TrimRight(line, " \t\r"))
	}
	text := strings.Join(body, "\n")
	// Option lines (":maxdepth: 2") belong to the directive header.
	var kept []string
	for _, line := range strings.Split(dedentBlock(text), "\n") {
		if strings.HasPrefix(line, ":") && len(kept) == 0 {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// dedentBlock removes the common indentation of every non-blank line.
func dedentBlock(text string) string {
	lines := strings.Split(text, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return text
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
