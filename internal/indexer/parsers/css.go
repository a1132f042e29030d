package parsers

import (
	"strings"

	"github.com/gorilla/css/scanner"

	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// cssBlock is one open "{" in a stylesheet.
type cssBlock struct {
	item   int // index into file.items, -1 for blocks that produce no item
	atRule string
	name   string
	kind   extraction.Kind
}

// cssPrelude accumulates the tokens before a "{", ";" or "}".
type cssPrelude struct {
	b    strings.Builder
	line int
}

func (p *cssPrelude) add(tok *scanner.Token) {
	if tok.Type == scanner.TokenS {
		if p.b.Len() > 0 {
			p.b.WriteByte(' ')
		}
		return
	}
	if p.b.Len() == 0 {
		p.line = tok.Line
	}
	p.b.WriteString(tok.Value)
}

func (p *cssPrelude) text() string { return collapse(p.b.String()) }

func (p *cssPrelude) reset() { p.b.Reset(); p.line = 0 }

// extractCSS scans a stylesheet's token stream. Rules become class items
// keyed by selector, custom properties become constants, and at-rule blocks
// become modules that own the rules inside them.
func extractCSS(_ *Extractor, f *file) error {
	s := scanner.New(string(f.src))
	var (
		stack       []cssBlock
		prelude     cssPrelude
		comment     string
		commentLine int // last line of the pending comment
	)

	inKeyframes := func() bool {
		for _, b := range stack {
			if b.atRule == "keyframes" || strings.HasSuffix(b.atRule, "-keyframes") {
				return true
			}
		}
		return false
	}
	owner := func() *cssBlock {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].item >= 0 {
				return &stack[i]
			}
		}
		return nil
	}
	docFor := func(line int) string {
		if comment != "" && commentLine >= line-1 {
			return comment
		}
		return ""
	}
	setOwner := func(it *extraction.Item) {
		if o := owner(); o != nil {
			it.Metadata.OwnerName = o.name
			it.Metadata.OwnerKind = o.kind
		}
	}

	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		switch {
		case tok.Type == scanner.TokenComment:
			comment = docstyle.StripBlockComment(tok.Value)
			commentLine = tok.Line + strings.Count(tok.Value, "\n")
			continue

		case tok.Type == scanner.TokenChar && tok.Value == "{":
			text, line := prelude.text(), prelude.line
			prelude.reset()
			if line == 0 {
				line = tok.Line
			}
			block := cssBlock{item: -1}
			switch {
			case strings.HasPrefix(text, "@"):
				keyword, _ := splitFirstSpace(text[1:])
				block.atRule = keyword
				block.name = text
				block.kind = extraction.KindModule
				if !inKeyframes() {
					it := extraction.Item{
						Kind:      extraction.KindModule,
						Name:      text,
						Signature: text,
						Doc:       docFor(line),
						StartLine: line,
						Metadata:  extraction.Metadata{AtRule: keyword},
					}
					setOwner(&it)
					block.item = f.push(it)
				}
			case inKeyframes() || text == "":
				// Keyframe selectors are part of the animation.
			default:
				block.name = text
				block.kind = extraction.KindClass
				it := extraction.Item{
					Kind:      extraction.KindClass,
					Name:      text,
					Signature: text,
					Doc:       docFor(line),
					StartLine: line,
					Metadata:  extraction.Metadata{Selector: text},
				}
				setOwner(&it)
				block.item = f.push(it)
			}
			comment = ""
			stack = append(stack, block)

		case tok.Type == scanner.TokenChar && (tok.Value == ";" || tok.Value == "}"):
			text, line := prelude.text(), prelude.line
			prelude.reset()
			if text != "" {
				f.cssStatement(text, line, owner(), docFor(line))
				comment = ""
			}
			if tok.Value == "}" && len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.item >= 0 {
					it := &f.items[top.item]
					it.EndLine = tok.Line
					if f.opts.IncludeSource {
						it.Source = f.snippet(it.StartLine, it.EndLine)
					}
				}
			}

		default:
			prelude.add(tok)
		}
	}
	return nil
}

// cssStatement handles a declaration or a block-less at-rule.
func (f *file) cssStatement(text string, line int, owner *cssBlock, doc string) {
	if strings.HasPrefix(text, "@") {
		keyword, _ := splitFirstSpace(text[1:])
		f.push(extraction.Item{
			Kind:      extraction.KindProperty,
			Name:      text,
			Signature: text,
			Doc:       doc,
			StartLine: line,
			EndLine:   line,
			Metadata:  extraction.Metadata{AtRule: keyword},
		})
		return
	}

	prop, value, ok := strings.Cut(text, ":")
	if !ok {
		return
	}
	prop, value = strings.TrimSpace(prop), strings.TrimSpace(value)
	if owner != nil && owner.kind == extraction.KindClass {
		rule := &f.items[owner.item]
		rule.Metadata.Fields = appendUnique(rule.Metadata.Fields, prop)
	}
	if !strings.HasPrefix(prop, "--") {
		return
	}
	it := extraction.Item{
		Kind:      extraction.KindConstant,
		Name:      prop,
		Signature: prop + ": " + value,
		Doc:       doc,
		StartLine: line,
		EndLine:   line,
		Metadata:  extraction.Metadata{Value: value},
	}
	if owner != nil {
		it.Metadata.OwnerName = owner.name
		it.Metadata.OwnerKind = owner.kind
		it.Metadata.Selector = owner.name
	}
	f.push(it)
}

func splitFirstSpace(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n("); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}
