package parsers

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

// htmlToken is one tokenizer step with the line it starts on.
type htmlToken struct {
	html.Token
	line    int
	raw     string
	endLine int
}

// htmlTokens tokenizes a document, tracking line numbers from the raw
// token text.
func htmlTokens(src []byte) []htmlToken {
	z := html.NewTokenizer(bytes.NewReader(src))
	line := 1
	var out []htmlToken
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		raw := string(z.Raw())
		tok := htmlToken{Token: z.Token(), line: line, raw: raw}
		line += strings.Count(raw, "\n")
		tok.endLine = line
		out = append(out, tok)
	}
}

func attrMap(tok html.Token) map[string]string {
	if len(tok.Attr) == 0 {
		return nil
	}
	m := make(map[string]string, len(tok.Attr))
	for _, a := range tok.Attr {
		m[a.Key] = a.Val
	}
	return m
}

func attrValue(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// headingLevel returns 1..6 for h1..h6 and 0 otherwise.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// openElement is an element whose end tag closes an item.
type openElement struct {
	tag  string
	item int
}

// extractHTML emits headings as modules with a slash-separated path,
// elements carrying an id as properties, custom elements as components, and
// the symbols of inline scripts and styles through their own extractors.
func extractHTML(x *Extractor, f *file) error {
	doc := newHeadedDoc(f)
	tokens := htmlTokens(f.src)

	var (
		open       []openElement
		heading    *htmlToken
		headingBuf strings.Builder
		para       *strings.Builder
		components = make(map[string]bool)
	)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case html.StartTagToken, html.SelfClosingTagToken:
			tag := tok.Data
			switch {
			case headingLevel(tag) > 0:
				heading = &tokens[i]
				headingBuf.Reset()
				continue
			case tag == "p":
				para = &strings.Builder{}
			case tag == "script" || tag == "style":
				if tok.Type == html.SelfClosingTagToken {
					continue
				}
				if i+1 < len(tokens) && tokens[i+1].Type == html.TextToken {
					f.embedHTMLBlock(x, doc, tok.Token, tokens[i+1])
					i++
				}
				continue
			}

			idx := -1
			if id, ok := attrValue(tok.Token, "id"); ok && id != "" {
				idx = doc.leaf(extraction.Item{
					Kind:      extraction.KindProperty,
					Name:      "#" + id,
					Signature: collapse(tok.raw),
					StartLine: tok.line,
					EndLine:   tok.endLine,
					Metadata: extraction.Metadata{
						TagName:        tag,
						HTMLAttributes: attrMap(tok.Token),
					},
				})
			} else if strings.Contains(tag, "-") && !components[tag] {
				components[tag] = true
				idx = doc.leaf(extraction.Item{
					Kind:      extraction.KindComponent,
					Name:      tag,
					Signature: collapse(tok.raw),
					StartLine: tok.line,
					EndLine:   tok.endLine,
					Metadata: extraction.Metadata{
						TagName:        tag,
						HTMLAttributes: attrMap(tok.Token),
						IsComponent:    true,
					},
				})
			}
			if tok.Type == html.StartTagToken && !voidElements[tag] {
				open = append(open, openElement{tag: tag, item: idx})
			}

		case html.TextToken:
			if heading != nil {
				headingBuf.WriteString(tok.Data)
			} else if para != nil {
				para.WriteString(tok.Data)
			}

		case html.EndTagToken:
			tag := tok.Data
			if heading != nil && tag == heading.Data {
				title := collapse(headingBuf.String())
				doc.heading(headingLevel(tag), title, heading.line, title)
				heading = nil
				continue
			}
			if tag == "p" && para != nil {
				doc.describe(collapse(para.String()))
				para = nil
			}
			for j := len(open) - 1; j >= 0; j-- {
				if open[j].tag != tag {
					continue
				}
				if item := open[j].item; item >= 0 {
					it := &f.items[item]
					it.EndLine = tok.line
					if f.opts.IncludeSource {
						it.Source = f.snippet(it.StartLine, it.EndLine)
					}
				}
				open = open[:j]
				break
			}
		}
	}
	doc.done()
	return nil
}

// embedHTMLBlock runs the script or style extractor over an inline block.
// Top-level symbols of the block belong to the open heading.
func (f *file) embedHTMLBlock(x *Extractor, doc *headedDoc, start html.Token, body htmlToken) {
	if _, external := attrValue(start, "src"); external {
		return
	}
	lang := extraction.LangCSS
	if start.Data == "script" {
		typ, _ := attrValue(start, "type")
		langAttr, _ := attrValue(start, "lang")
		switch {
		case typ != "" && !strings.Contains(typ, "javascript") && typ != "module":
			// JSON data blocks, templates and the like.
			return
		case langAttr == "ts" || langAttr == "typescript":
			lang = extraction.LangTypeScript
		default:
			lang = extraction.LangJavaScript
		}
	}
	for _, it := range x.extractEmbedded(lang, body.raw, body.line) {
		it.Metadata.Language = string(lang)
		if it.Metadata.OwnerName == "" {
			doc.stack.assignOwner(&it)
		}
		f.push(it)
	}
}
