package parsers

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// sfcFlavor selects the single-file component conventions.
type sfcFlavor int

const (
	sfcVue sfcFlavor = iota
	sfcSvelte
)

// sfcScript is one <script> or <style> block of a component file.
type sfcScript struct {
	lang extraction.Language
	text string
	line int // line the block text starts on
}

// sfcMember is a prop or event declared by a component script.
type sfcMember struct {
	kind      extraction.Kind
	name      string
	typ       string
	signature string
	line      int
}

func extractVue(x *Extractor, f *file) error {
	return extractComponentFile(x, f, sfcVue)
}

func extractSvelte(x *Extractor, f *file) error {
	return extractComponentFile(x, f, sfcSvelte)
}

// extractComponentFile emits one component item for the file, its props
// and events, the symbols of each script block owned by the component, and
// the child components its markup uses.
func extractComponentFile(x *Extractor, f *file, flavor sfcFlavor) error {
	name := f.name
	if name == "" {
		name = "Component"
	}
	tokens := htmlTokens(f.src)

	var (
		scripts  []sfcScript
		styles   []sfcScript
		children []string
		doc      string
		sections *extraction.DocSections
		inDocs   bool
		docsBuf  strings.Builder
	)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "script", "style":
				if tok.Type == html.StartTagToken && i+1 < len(tokens) && tokens[i+1].Type == html.TextToken {
					block := sfcScript{text: tokens[i+1].raw, line: tokens[i+1].line}
					if tok.Data == "style" {
						block.lang = extraction.LangCSS
						styles = append(styles, block)
					} else {
						block.lang = scriptLanguage(tok.Token)
						scripts = append(scripts, block)
					}
					i++
				}
				continue
			case "docs":
				inDocs = flavor == sfcVue
				continue
			}
			if child := componentTagName(tok.raw); child != "" {
				children = appendUnique(children, child)
			}
		case html.EndTagToken:
			if tok.Data == "docs" && inDocs {
				inDocs = false
				doc = strings.TrimSpace(dedentBlock(docsBuf.String()))
			}
		case html.TextToken:
			if inDocs {
				docsBuf.WriteString(tok.raw)
			}
		case html.CommentToken:
			if flavor == sfcSvelte && strings.HasPrefix(strings.TrimSpace(tok.Data), "@component") {
				sections = docstyle.SvelteComponent(tok.raw)
				doc = strings.TrimSpace(dedentBlock(strings.TrimPrefix(strings.TrimSpace(tok.Data), "@component")))
			}
		}
	}

	var members []sfcMember
	for _, s := range scripts {
		members = append(members, x.scriptMembers(s, flavor)...)
	}

	comp := extraction.Item{
		Kind:       extraction.KindComponent,
		Name:       name,
		Signature:  name,
		Doc:        doc,
		StartLine:  1,
		EndLine:    f.lineCount(),
		Visibility: extraction.VisibilityExported,
		Metadata: extraction.Metadata{
			IsComponent:     true,
			IsDefaultExport: true,
			JSXElements:     children,
			DocSections:     sections,
		},
	}
	if len(scripts) > 0 {
		comp.Metadata.Language = string(scripts[0].lang)
	}
	props := make(map[string]bool)
	for _, m := range members {
		if m.kind == extraction.KindProperty {
			props[m.name] = true
			comp.Metadata.Fields = appendUnique(comp.Metadata.Fields, m.name)
		}
	}
	f.push(comp)

	for _, m := range members {
		f.push(extraction.Item{
			Kind:       m.kind,
			Name:       m.name,
			Signature:  m.signature,
			StartLine:  m.line,
			EndLine:    m.line,
			Visibility: extraction.VisibilityPublic,
			Metadata: extraction.Metadata{
				ReturnType: m.typ,
				OwnerName:  name,
				OwnerKind:  extraction.KindComponent,
			},
		})
	}

	for _, s := range append(scripts, styles...) {
		for _, it := range x.extractEmbedded(s.lang, s.text, s.line) {
			if props[it.Name] && (it.Kind == extraction.KindStatic || it.Kind == extraction.KindConstant) {
				continue
			}
			if it.Metadata.OwnerName == "" {
				it.Metadata.OwnerName = name
				it.Metadata.OwnerKind = extraction.KindComponent
			}
			it.Metadata.Language = string(s.lang)
			f.push(it)
		}
	}
	return nil
}

func scriptLanguage(tok html.Token) extraction.Language {
	lang, _ := attrValue(tok, "lang")
	switch strings.ToLower(lang) {
	case "ts", "typescript":
		return extraction.LangTypeScript
	case "tsx":
		return extraction.LangTSX
	}
	return extraction.LangJavaScript
}

// componentTagName returns the tag of a start tag as written when it names
// a component: PascalCase or a custom element with a hyphen.
func componentTagName(raw string) string {
	raw = strings.TrimPrefix(raw, "<")
	end := strings.IndexAny(raw, " \t\r\n/>")
	if end < 0 {
		end = len(raw)
	}
	tag := raw[:end]
	if isUpperIdent(tag) || strings.Contains(tag, "-") {
		return tag
	}
	return ""
}

// scriptMembers finds the props and events a component script declares.
func (x *Extractor) scriptMembers(s sfcScript, flavor sfcFlavor) []sfcMember {
	g := cst.GrammarTSX
	if s.lang == extraction.LangTypeScript {
		g = cst.GrammarTypeScript
	}
	tree, err := x.registry.Parse(g, []byte(s.text))
	if err != nil {
		return nil
	}
	defer tree.Close()

	offset := s.line - 1
	var out []sfcMember
	add := func(kind extraction.Kind, name, typ string, n *cst.Node) {
		name = strings.Trim(name, `"'`+"`")
		if name == "" {
			return
		}
		out = append(out, sfcMember{
			kind:      kind,
			name:      name,
			typ:       typ,
			signature: firstLine(n),
			line:      n.StartLine() + offset,
		})
	}

	tree.Root().Walk(func(n *cst.Node) bool {
		switch n.Kind() {
		case "call_expression":
			callee := calleeName(n.Field("function"))
			args := n.Field("arguments")
			switch {
			case flavor == sfcVue && callee == "defineProps":
				sfcTypeMembers(n.Field("type_arguments"), extraction.KindProperty, add)
				sfcArgMembers(args, extraction.KindProperty, add)
			case flavor == sfcVue && callee == "defineEmits":
				sfcTypeMembers(n.Field("type_arguments"), extraction.KindEvent, add)
				sfcArgMembers(args, extraction.KindEvent, add)
			case flavor == sfcSvelte && callee == "dispatch":
				if first := firstArg(args); first.Kind() == "string" {
					add(extraction.KindEvent, first.Text(), "", n)
				}
			}

		case "pair":
			// Options API: export default { props: ..., emits: ... }
			if flavor != sfcVue || !isComponentOptions(n.Parent()) {
				return true
			}
			switch strings.Trim(fieldText(n, "key"), `"'`) {
			case "props":
				sfcValueMembers(n.Field("value"), extraction.KindProperty, add)
			case "emits":
				sfcValueMembers(n.Field("value"), extraction.KindEvent, add)
			}

		case "export_statement":
			// Svelte 4 props: export let name = value
			decl := n.Field("declaration")
			if flavor != sfcSvelte || decl.Kind() != "lexical_declaration" || decl.Child(0).Text() != "let" {
				return true
			}
			for _, vd := range decl.ChildrenOfKind("variable_declarator") {
				add(extraction.KindProperty, fieldText(vd, "name"), typeText(vd.Field("type")), vd)
			}
			return false

		case "variable_declarator":
			// Svelte 5 props: let { a, b = 1 } = $props()
			value := n.Field("value")
			if flavor != sfcSvelte || value.Kind() != "call_expression" || calleeName(value.Field("function")) != "$props" {
				return true
			}
			pattern := n.Field("name")
			for _, p := range pattern.NamedChildren() {
				switch p.Kind() {
				case "shorthand_property_identifier_pattern":
					add(extraction.KindProperty, p.Text(), "", p)
				case "object_assignment_pattern":
					add(extraction.KindProperty, fieldText(p, "left"), "", p)
				case "pair_pattern":
					add(extraction.KindProperty, fieldText(p, "key"), "", p)
				}
			}
			return false
		}
		return true
	})
	return out
}

// sfcTypeMembers reads members from a type argument such as
// defineProps<{ title: string }>() or defineEmits<{ (e: 'save'): void }>().
func sfcTypeMembers(typeArgs *cst.Node, kind extraction.Kind, add func(extraction.Kind, string, string, *cst.Node)) {
	for _, obj := range typeArgs.NamedChildren() {
		if obj.Kind() != "object_type" {
			continue
		}
		for _, m := range obj.NamedChildren() {
			switch m.Kind() {
			case "property_signature":
				add(kind, fieldText(m, "name"), typeText(m.Field("type")), m)
			case "call_signature":
				// The event name is the literal type of the first parameter.
				params := m.Field("parameters").NamedChildren()
				if len(params) == 0 {
					continue
				}
				if lit := params[0].Field("type"); lit != nil {
					add(kind, typeText(lit), "", m)
				}
			}
		}
	}
}

// sfcArgMembers reads members from the first call argument.
func sfcArgMembers(args *cst.Node, kind extraction.Kind, add func(extraction.Kind, string, string, *cst.Node)) {
	sfcValueMembers(firstArg(args), kind, add)
}

// sfcValueMembers reads an array of names or an object keyed by name.
func sfcValueMembers(v *cst.Node, kind extraction.Kind, add func(extraction.Kind, string, string, *cst.Node)) {
	switch v.Kind() {
	case "array":
		for _, el := range v.NamedChildren() {
			if el.Kind() == "string" {
				add(kind, el.Text(), "", el)
			}
		}
	case "object":
		for _, m := range v.NamedChildren() {
			switch m.Kind() {
			case "pair":
				typ := ""
				if val := m.Field("value"); val.Kind() == "identifier" {
					typ = val.Text()
				}
				add(kind, fieldText(m, "key"), typ, m)
			case "shorthand_property_identifier":
				add(kind, m.Text(), "", m)
			case "method_definition":
				add(kind, fieldText(m, "name"), "", m)
			}
		}
	}
}

func firstArg(args *cst.Node) *cst.Node {
	for _, a := range args.NamedChildren() {
		if a.Kind() != "comment" {
			return a
		}
	}
	return nil
}

// isComponentOptions reports whether obj is the options object of a
// component: the default export or the argument of defineComponent.
func isComponentOptions(obj *cst.Node) bool {
	if obj.Kind() != "object" {
		return false
	}
	parent := obj.Parent()
	switch parent.Kind() {
	case "export_statement":
		return true
	case "arguments":
		return calleeName(parent.Parent().Field("function")) == "defineComponent"
	}
	return false
}
