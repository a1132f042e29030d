package parsers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

var (
	atxHeadingPattern   = regexp.MustCompile(`^#{1,6}\s+\S`)
	linkListPattern     = regexp.MustCompile(`^\s*[-*+]\s+\[[^\]]+\]\([^)]+\)`)
	rstDirectivePattern = regexp.MustCompile(`^\.\.\s+[A-Za-z][\w:-]*::`)
	numberedHeadPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(\S.*)$`)
)

const (
	rstAdornmentChars     = "=-~^\"'`*+#:._"
	plainHeadingMaxLength = 80
)

// SniffPlainText decides which extractor handles a file tagged plain text.
// Headed-markup signals (ATX headings, link lists, code fences) select
// markdown; directives or repeated underline-adorned headings select
// reStructuredText; anything else stays plain text.
func SniffPlainText(source []byte) extraction.Language {
	lines := strings.Split(string(source), "\n")
	markdown, rst := 0, 0
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		switch {
		case atxHeadingPattern.MatchString(trimmed):
			markdown++
		case linkListPattern.MatchString(trimmed):
			markdown++
		case strings.HasPrefix(trimmed, "```"):
			markdown++
		case rstDirectivePattern.MatchString(trimmed):
			rst += 2
		case i > 0 && isAdornment(trimmed, rstAdornmentChars) && isUnderlineOf(lines[i-1], trimmed):
			rst++
		}
	}
	switch {
	case markdown > 0 && markdown >= rst:
		return extraction.LangMarkdown
	case rst >= 2:
		return extraction.LangRST
	}
	return extraction.LangPlainText
}

// isAdornment reports whether line is a run of one repeated punctuation
// character from chars, at least three long.
func isAdornment(line, chars string) bool {
	if len(line) < 3 || !strings.ContainsRune(chars, rune(line[0])) {
		return false
	}
	return strings.Count(line, line[:1]) == len(line)
}

// isUnderlineOf reports whether adornment underlines title.
func isUnderlineOf(title, adornment string) bool {
	title = strings.TrimRight(title, " \t\r")
	if strings.TrimSpace(title) == "" || title != strings.TrimLeft(title, " \t") {
		return false
	}
	return len(adornment) >= len([]rune(title))
}

// extractPlainText segments unstructured text: heuristic headings become
// modules and blank-line separated paragraphs become property leaves.
func extractPlainText(_ *Extractor, f *file) error {
	doc := newHeadedDoc(f)
	lines := f.lines

	var para []string
	paraStart := 0
	flush := func() {
		if len(para) == 0 {
			return
		}
		text := strings.Join(para, "\n")
		doc.leaf(extraction.Item{
			Kind:      extraction.KindProperty,
			Name:      blockName(text),
			Doc:       text,
			StartLine: paraStart,
			EndLine:   paraStart + len(para) - 1,
			Metadata:  extraction.Metadata{TagName: "paragraph"},
		})
		para = nil
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t\r")
		lineNo := i + 1

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if i+1 < len(lines) && len(para) == 0 {
			next := strings.TrimRight(lines[i+1], " \t\r")
			if isAdornment(next, "=-") && isUnderlineOf(line, next) {
				level := 1
				if next[0] == '-' {
					level = 2
				}
				doc.heading(level, line, lineNo, line)
				i++
				continue
			}
		}

		if len(para) == 0 {
			if level, title, ok := plainHeading(line); ok {
				doc.heading(level, title, lineNo, line)
				continue
			}
			paraStart = lineNo
		}
		para = append(para, strings.TrimSpace(line))
	}
	flush()
	doc.done()
	return nil
}

// plainHeading recognises a standalone heading line: ALL CAPS text, or a
// numbered title such as "2.1 Scope". Numbered headings nest by depth.
func plainHeading(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > plainHeadingMaxLength || strings.HasSuffix(trimmed, ".") {
		return 0, "", false
	}
	if m := numberedHeadPattern.FindStringSubmatch(trimmed); m != nil {
		rest := m[2]
		r := []rune(rest)
		if unicode.IsUpper(r[0]) && !strings.HasSuffix(rest, ".") && len(strings.Fields(rest)) <= 10 {
			return strings.Count(m[1], ".") + 1, trimmed, true
		}
	}
	if isAllCaps(trimmed) {
		return 1, trimmed, true
	}
	return 0, "", false
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}
