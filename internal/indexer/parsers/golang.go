package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var goComments = commentFilter{kinds: []string{"comment"}}

// goParser extracts package-level declarations from a Go source file.
type goParser struct {
	f *file
}

func extractGo(x *Extractor, f *file) error {
	tree, err := x.parse(f, cst.GrammarGo)
	if err != nil {
		return err
	}
	defer tree.Close()

	p := &goParser{f: f}
	for _, n := range statementsOf(tree.Root()) {
		switch n.Kind() {
		case "function_declaration":
			p.extractFunction(n)
		case "method_declaration":
			p.extractMethod(n)
		case "type_declaration":
			p.extractTypes(n)
		case "const_declaration":
			p.extractValues(n, "const_spec", extraction.KindConstant)
		case "var_declaration":
			p.extractValues(n, "var_spec", extraction.KindStatic)
		}
	}
	p.linkMethods()
	return nil
}

// goDoc returns the comment block above n without compiler directives.
func goDoc(n *cst.Node) (string, *extraction.DocSections) {
	var comments []string
	for _, c := range precedingComments(n, goComments) {
		if strings.HasPrefix(c, "//go:") || strings.HasPrefix(c, "//nolint") || strings.HasPrefix(c, "//line ") {
			continue
		}
		comments = append(comments, c)
	}
	doc := commentDoc(comments)
	if doc == "" {
		return "", nil
	}
	return doc, docstyle.GoDoc(doc)
}

func (p *goParser) extractFunction(n *cst.Node) {
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return
	}
	it := extraction.Item{
		Kind:       extraction.KindFunction,
		Name:       name,
		Signature:  p.f.header(n, body),
		Visibility: visibility.GoIdent(name),
		Metadata: extraction.Metadata{
			Parameters: goParams(n.Field("parameters")),
			ReturnType: collapse(n.Field("result").Text()),
			Generics:   childTexts(n.Field("type_parameters")),
		},
	}
	it.Doc, it.Metadata.DocSections = goDoc(n)
	p.f.add(n, it)
}

func (p *goParser) extractMethod(n *cst.Node) {
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return
	}
	it := extraction.Item{
		Kind:       extraction.KindMethod,
		Name:       name,
		Signature:  p.f.header(n, body),
		Visibility: visibility.GoIdent(name),
		Metadata: extraction.Metadata{
			Parameters: goParams(n.Field("parameters")),
			ReturnType: collapse(n.Field("result").Text()),
			OwnerName:  receiverType(n.Field("receiver")),
			OwnerKind:  extraction.KindStruct,
		},
	}
	it.Doc, it.Metadata.DocSections = goDoc(n)
	p.f.add(n, it)
}

// goParams returns one text per parameter, splitting grouped names so that
// "a, b int" yields "a int" and "b int".
func goParams(params *cst.Node) []string {
	var out []string
	for _, pd := range params.NamedChildren() {
		switch pd.Kind() {
		case "parameter_declaration":
			names := pd.ChildrenOfKind("identifier")
			typ := collapse(pd.Field("type").Text())
			if len(names) < 2 {
				out = append(out, collapse(pd.Text()))
				continue
			}
			for _, id := range names {
				out = append(out, id.Text()+" "+typ)
			}
		case "variadic_parameter_declaration":
			out = append(out, collapse(pd.Text()))
		}
	}
	return out
}

// receiverType returns the base type name of a method receiver:
// (s *Server[T]) gives "Server".
func receiverType(recv *cst.Node) string {
	decl := recv.ChildOfKind("parameter_declaration")
	t := strings.TrimSpace(decl.Field("type").Text())
	t = strings.TrimLeft(t, "*")
	if i := strings.IndexByte(t, '['); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// extractTypes handles single and grouped type declarations.
func (p *goParser) extractTypes(decl *cst.Node) {
	specs := decl.ChildrenOfKind("type_spec", "type_alias")
	grouped := len(specs) > 1 || decl.HasChild("(")
	for _, spec := range specs {
		name := fieldText(spec, "name")
		if name == "" {
			continue
		}
		typ := spec.Field("type")

		// A lone spec spans the whole declaration, including "type".
		anchor := decl
		if grouped {
			anchor = spec
		}
		it := extraction.Item{
			Name:       name,
			Visibility: visibility.GoIdent(name),
			Metadata: extraction.Metadata{
				Generics: childTexts(spec.Field("type_parameters")),
			},
		}
		it.Doc, it.Metadata.DocSections = goDoc(anchor)
		if it.Doc == "" && grouped && len(specs) == 1 {
			it.Doc, it.Metadata.DocSections = goDoc(decl)
		}

		var members *cst.Node
		switch typ.Kind() {
		case "struct_type":
			it.Kind = extraction.KindStruct
			members = typ.ChildOfKind("field_declaration_list")
			it.Signature = p.f.header(anchor, members)
		case "interface_type":
			it.Kind = extraction.KindInterface
			members = typ
			it.Signature = p.f.header(anchor, nil)
			if i := strings.IndexByte(it.Signature, '{'); i >= 0 {
				it.Signature = strings.TrimSpace(it.Signature[:i])
			}
		default:
			it.Kind = extraction.KindTypeAlias
			it.Signature = p.f.header(anchor, nil)
			it.Metadata.Value = collapse(typ.Text())
		}
		it.Signature = strings.TrimSuffix(strings.TrimSpace(it.Signature), "{")
		it.Signature = strings.TrimSpace(it.Signature)
		if grouped && !strings.HasPrefix(it.Signature, "type ") {
			it.Signature = "type " + it.Signature
		}
		idx := p.f.add(anchor, it)

		switch it.Kind {
		case extraction.KindStruct:
			p.extractFields(idx, members)
		case extraction.KindInterface:
			p.extractInterface(idx, members)
		}
	}
}

// extractFields emits the named and embedded fields of a struct.
func (p *goParser) extractFields(owner int, list *cst.Node) {
	ownerName := p.f.items[owner].Name
	for _, fd := range list.ChildrenOfKind("field_declaration") {
		typ := collapse(fd.Field("type").Text())
		names := fd.ChildrenOfKind("field_identifier")
		if len(names) == 0 {
			// Embedded type: promotes its methods.
			embedded := strings.TrimLeft(typ, "*")
			p.f.items[owner].Metadata.BaseTypes = append(p.f.items[owner].Metadata.BaseTypes, embedded)
			continue
		}
		for _, id := range names {
			field := extraction.Item{
				Kind:       extraction.KindField,
				Name:       id.Text(),
				Signature:  collapse(fd.Text()),
				Visibility: visibility.GoIdent(id.Text()),
				Metadata: extraction.Metadata{
					ReturnType: typ,
					OwnerName:  ownerName,
					OwnerKind:  extraction.KindStruct,
				},
			}
			field.Doc, _ = goDoc(fd)
			if field.Doc == "" {
				field.Doc = trailingComment(fd)
			}
			p.f.items[owner].Metadata.Fields = append(p.f.items[owner].Metadata.Fields, id.Text())
			p.f.add(fd, field)
		}
	}
}

// trailingComment returns a comment on the same line after n.
func trailingComment(n *cst.Node) string {
	next := n.Next()
	if next.Kind() == "comment" && next.StartLine() == n.EndLine() {
		return docstyle.StripComment(next.Text())
	}
	return ""
}

// extractInterface emits the methods an interface declares and records
// embedded interfaces and type constraints as base types.
func (p *goParser) extractInterface(owner int, iface *cst.Node) {
	ownerName := p.f.items[owner].Name
	for _, m := range iface.NamedChildren() {
		switch m.Kind() {
		case "method_elem", "method_spec":
			name := fieldText(m, "name")
			method := extraction.Item{
				Kind:       extraction.KindMethod,
				Name:       name,
				Signature:  collapse(m.Text()),
				Visibility: visibility.GoIdent(name),
				Metadata: extraction.Metadata{
					Parameters: goParams(m.Field("parameters")),
					ReturnType: collapse(m.Field("result").Text()),
					OwnerName:  ownerName,
					OwnerKind:  extraction.KindInterface,
					IsAbstract: true,
				},
			}
			method.Doc, method.Metadata.DocSections = goDoc(m)
			p.f.items[owner].Metadata.Methods = append(p.f.items[owner].Metadata.Methods, name)
			p.f.add(m, method)
		case "type_elem", "constraint_elem", "interface_type_name":
			p.f.items[owner].Metadata.BaseTypes = append(p.f.items[owner].Metadata.BaseTypes, collapse(m.Text()))
		}
	}
}

// valueSignature renders a const or var spec. A value spanning several
// lines, such as a composite literal, is cut off at the "=".
func (p *goParser) valueSignature(decl, spec, value *cst.Node, grouped bool) string {
	var sig string
	if grouped {
		sig = decl.Child(0).Text() + " " + collapse(p.f.header(spec, value))
	} else {
		sig = collapse(p.f.header(decl, value))
	}
	if value == nil {
		return sig
	}
	sig = trimBodyMarker(sig, "=")
	if strings.Contains(value.Text(), "\n") {
		return sig
	}
	return sig + " = " + collapse(value.Text())
}

// extractValues emits one item per name in a const or var declaration.
func (p *goParser) extractValues(decl *cst.Node, specKind string, kind extraction.Kind) {
	specs := decl.Descendants(specKind)
	grouped := len(specs) > 1 || decl.HasChild("(")
	for _, spec := range specs {
		names := spec.ChildrenOfKind("identifier")
		var values []*cst.Node
		valueList := spec.Field("value")
		if valueList != nil {
			values = valueList.NamedChildren()
		}
		anchor := decl
		if grouped {
			anchor = spec
		}
		signature := p.valueSignature(decl, spec, valueList, grouped)
		doc, sections := goDoc(anchor)
		if doc == "" {
			doc = trailingComment(spec)
		}
		for i, id := range names {
			name := id.Text()
			if name == "_" {
				continue
			}
			it := extraction.Item{
				Kind:       kind,
				Name:       name,
				Signature:  signature,
				Doc:        doc,
				Visibility: visibility.GoIdent(name),
				Metadata: extraction.Metadata{
					ReturnType:  collapse(spec.Field("type").Text()),
					DocSections: sections,
				},
			}
			if i < len(values) {
				it.Metadata.Value = collapse(values[i].Text())
			}
			if i == 0 {
				p.f.add(anchor, it)
			} else {
				p.f.push(withSpan(it, anchor))
			}
		}
	}
}

// withSpan fills an item's lines from n without anchoring it there.
func withSpan(it extraction.Item, n *cst.Node) extraction.Item {
	it.StartLine = n.StartLine()
	it.EndLine = n.EndLine()
	return it
}

// linkMethods records methods on the type declared in the same file and
// corrects the owner kind for non-struct receivers.
func (p *goParser) linkMethods() {
	types := make(map[string]int)
	for i, it := range p.f.items {
		switch it.Kind {
		case extraction.KindStruct, extraction.KindTypeAlias, extraction.KindInterface:
			if it.Metadata.OwnerName == "" {
				types[it.Name] = i
			}
		}
	}
	for i := range p.f.items {
		m := &p.f.items[i]
		if m.Kind != extraction.KindMethod || m.Metadata.OwnerKind != extraction.KindStruct {
			continue
		}
		idx, ok := types[m.Metadata.OwnerName]
		if !ok {
			continue
		}
		owner := &p.f.items[idx]
		m.Metadata.OwnerKind = owner.Kind
		owner.Metadata.Methods = appendUnique(owner.Metadata.Methods, m.Name)
	}
}
