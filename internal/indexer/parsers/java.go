package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var javadocComments = commentFilter{
	kinds:  []string{"block_comment", "line_comment"},
	accept: func(text string) bool { return strings.HasPrefix(text, "/**") },
}

// javaParser extracts types and their members from a compilation unit.
type javaParser struct {
	f *file
}

// javaOwner is the type whose body is being walked.
type javaOwner struct {
	name string
	kind extraction.Kind
	idx  int
	// interface members are implicitly public
	iface bool
}

func extractJava(x *Extractor, f *file) error {
	tree, err := x.parse(f, cst.GrammarJava)
	if err != nil {
		return err
	}
	defer tree.Close()

	p := &javaParser{f: f}
	for _, n := range statementsOf(tree.Root()) {
		p.extractType(n, nil)
	}
	return nil
}

// javaModifiers splits a modifiers node into keywords and annotations.
func javaModifiers(n *cst.Node) (keywords, annotations []string) {
	for _, c := range n.ChildOfKind("modifiers").Children() {
		switch c.Kind() {
		case "marker_annotation", "annotation":
			annotations = append(annotations, collapse(c.Text()))
		case "line_comment", "block_comment":
		default:
			keywords = append(keywords, c.Text())
		}
	}
	return keywords, annotations
}

func containsWord(words []string, want string) bool {
	for _, w := range words {
		if w == want {
			return true
		}
	}
	return false
}

// javaHeader returns the signature of a declaration without its
// annotations.
func (p *javaParser) javaHeader(n, body *cst.Node) string {
	from := headerStart(n)
	if mods := n.ChildOfKind("modifiers"); mods != nil {
		from = mods.Next()
		for _, c := range mods.Children() {
			if !hasKind(c, []string{"marker_annotation", "annotation", "line_comment", "block_comment"}) {
				from = c
				break
			}
		}
	}
	return p.f.headerFrom(from, n, body)
}

func javaDoc(n *cst.Node) (string, *extraction.DocSections) {
	doc := commentDoc(precedingComments(n, javadocComments))
	if doc == "" {
		return "", nil
	}
	return doc, docstyle.Javadoc(doc)
}

// newItem fills the parts every Java declaration shares.
func (p *javaParser) newItem(n *cst.Node, kind extraction.Kind, name string, owner *javaOwner) extraction.Item {
	keywords, annotations := javaModifiers(n)
	def := extraction.VisibilityCrate
	if owner != nil && owner.iface {
		def = extraction.VisibilityPublic
	}
	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Visibility: visibility.Modifiers(keywords, def),
		Metadata: extraction.Metadata{
			Attributes: annotations,
			IsStatic:   containsWord(keywords, "static"),
			IsAbstract: containsWord(keywords, "abstract"),
			Generics:   childTexts(n.Field("type_parameters")),
		},
	}
	it.Doc, it.Metadata.DocSections = javaDoc(n)
	if owner != nil {
		it.Metadata.OwnerName = owner.name
		it.Metadata.OwnerKind = owner.kind
	}
	return it
}

// extractType handles class-like declarations. It reports whether n was
// one.
func (p *javaParser) extractType(n *cst.Node, owner *javaOwner) bool {
	var kind extraction.Kind
	switch n.Kind() {
	case "class_declaration":
		kind = extraction.KindClass
	case "interface_declaration", "annotation_type_declaration":
		kind = extraction.KindInterface
	case "enum_declaration":
		kind = extraction.KindEnum
	case "record_declaration":
		kind = extraction.KindStruct
	default:
		return false
	}
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return true
	}

	it := p.newItem(n, kind, name, owner)
	it.Signature = p.javaHeader(n, body)
	if sc := n.Field("superclass"); sc != nil {
		it.Metadata.BaseTypes = append(it.Metadata.BaseTypes, collapse(strings.TrimPrefix(sc.Text(), "extends")))
	}
	for _, field := range []string{"interfaces", "extends_interfaces"} {
		if list := n.Field(field); list != nil {
			it.Metadata.BaseTypes = append(it.Metadata.BaseTypes, childTexts(list.ChildOfKind("type_list"))...)
		}
	}
	if ext := n.ChildOfKind("extends_interfaces"); ext != nil && n.Field("extends_interfaces") == nil {
		it.Metadata.BaseTypes = append(it.Metadata.BaseTypes, childTexts(ext.ChildOfKind("type_list"))...)
	}
	if n.Kind() == "annotation_type_declaration" {
		it.Metadata.Attributes = append(it.Metadata.Attributes, "@interface")
	}
	if kind == extraction.KindInterface {
		it.Metadata.IsAbstract = true
	}
	// Record components are its fields.
	for _, param := range n.Field("parameters").NamedChildren() {
		if fname := fieldText(param, "name"); fname != "" {
			it.Metadata.Fields = append(it.Metadata.Fields, fname)
		}
	}
	idx := p.f.add(n, it)

	self := &javaOwner{name: name, kind: kind, idx: idx, iface: kind == extraction.KindInterface}
	members := body.NamedChildren()
	if kind == extraction.KindEnum {
		for _, c := range body.ChildrenOfKind("enum_constant") {
			p.f.items[idx].Metadata.Variants = append(p.f.items[idx].Metadata.Variants, fieldText(c, "name"))
		}
		members = body.ChildOfKind("enum_body_declarations").NamedChildren()
	}
	for _, m := range members {
		p.extractMember(m, self)
	}
	return true
}

func (p *javaParser) extractMember(n *cst.Node, owner *javaOwner) {
	if p.extractType(n, owner) {
		return
	}
	switch n.Kind() {
	case "method_declaration", "annotation_type_element_declaration":
		p.extractMethod(n, owner, extraction.KindMethod)
	case "constructor_declaration", "compact_constructor_declaration":
		p.extractMethod(n, owner, extraction.KindConstructor)
	case "field_declaration", "constant_declaration":
		p.extractField(n, owner)
	}
}

func (p *javaParser) extractMethod(n *cst.Node, owner *javaOwner, kind extraction.Kind) {
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return
	}
	it := p.newItem(n, kind, name, owner)
	it.Signature = trimBodyMarker(p.javaHeader(n, body), ";")
	it.Metadata.Parameters = paramTexts(n.Field("parameters"))
	it.Metadata.ReturnType = collapse(n.Field("type").Text())
	if owner.iface && body == nil && !it.Metadata.IsStatic {
		it.Metadata.IsAbstract = true
	}
	if kind == extraction.KindConstructor && it.Metadata.Parameters == nil && n.Kind() == "compact_constructor_declaration" {
		it.Metadata.Parameters = p.f.items[owner.idx].Metadata.Fields
	}
	p.f.add(n, it)
	owning := &p.f.items[owner.idx]
	owning.Metadata.Methods = appendUnique(owning.Metadata.Methods, name)
}

// extractField emits one item per declarator. Static final fields, and
// every field of an interface, are constants.
func (p *javaParser) extractField(n *cst.Node, owner *javaOwner) {
	keywords, _ := javaModifiers(n)
	constant := owner.iface || (containsWord(keywords, "static") && containsWord(keywords, "final"))
	kind := extraction.KindField
	if constant {
		kind = extraction.KindConstant
	}
	typ := collapse(n.Field("type").Text())
	for _, d := range n.ChildrenOfKind("variable_declarator") {
		name := fieldText(d, "name")
		if name == "" {
			continue
		}
		it := p.newItem(n, kind, name, owner)
		it.Signature = trimBodyMarker(collapse(p.javaHeader(n, d.Field("value"))), "=", ";")
		it.Metadata.ReturnType = typ
		it.Metadata.Value = collapse(d.Field("value").Text())
		if owner.iface {
			it.Metadata.IsStatic = true
		}
		p.f.add(d, withSpan(it, n))
		owning := &p.f.items[owner.idx]
		owning.Metadata.Fields = appendUnique(owning.Metadata.Fields, name)
	}
}
