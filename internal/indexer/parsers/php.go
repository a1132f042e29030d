package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var phpDocComments = commentFilter{
	kinds:  []string{"comment"},
	accept: func(text string) bool { return strings.HasPrefix(text, "/**") },
	skip:   []string{"attribute_list"},
}

// phpParser extracts declarations from a PHP file. Declarations after a
// "namespace X;" statement belong to that namespace.
type phpParser struct {
	f         *file
	namespace string
}

// phpOwner is the class-like declaration whose body is being walked.
type phpOwner struct {
	name string
	kind extraction.Kind
	idx  int
	// interface methods are abstract
	iface bool
}

func extractPHP(x *Extractor, f *file) error {
	tree, err := x.parse(f, cst.GrammarPHP)
	if err != nil {
		return err
	}
	defer tree.Close()

	p := &phpParser{f: f}
	p.extractStatements(tree.Root())
	return nil
}

func (p *phpParser) extractStatements(list *cst.Node) {
	stmts := statementsOf(list)
	for i, n := range stmts {
		switch n.Kind() {
		case "namespace_definition":
			p.extractNamespace(n, stmts[i+1:])
		case "class_declaration":
			p.extractClassLike(n, extraction.KindClass)
		case "interface_declaration":
			p.extractClassLike(n, extraction.KindInterface)
		case "trait_declaration":
			p.extractClassLike(n, extraction.KindTrait)
		case "enum_declaration":
			p.extractClassLike(n, extraction.KindEnum)
		case "function_definition":
			p.extractFunction(n, nil)
		case "const_declaration":
			p.extractConstants(n, nil)
		}
	}
}

// extractNamespace emits a namespace as a module. A bracketed namespace
// spans its body; a statement namespace runs until the next namespace.
func (p *phpParser) extractNamespace(n *cst.Node, rest []*cst.Node) {
	name := fieldText(n, "name")
	body := n.Field("body")
	it := extraction.Item{
		Kind:       extraction.KindModule,
		Name:       name,
		Signature:  "namespace " + name,
		Visibility: extraction.VisibilityPublic,
		Metadata:   extraction.Metadata{Path: name},
	}
	it.Doc, it.Metadata.DocSections = phpDoc(n)
	if body == nil {
		it.StartLine = n.StartLine()
		it.EndLine = p.f.lineCount()
		for _, next := range rest {
			if next.Kind() == "namespace_definition" {
				it.EndLine = next.StartLine() - 1
				break
			}
		}
	}
	p.f.add(n, it)

	if body != nil {
		outer := p.namespace
		p.namespace = name
		p.extractStatements(body)
		p.namespace = outer
		return
	}
	p.namespace = name
}

func phpDoc(n *cst.Node) (string, *extraction.DocSections) {
	doc := commentDoc(precedingComments(n, phpDocComments))
	if doc == "" {
		return "", nil
	}
	return doc, docstyle.PHPDoc(doc)
}

// phpHeader returns a declaration's signature without its attributes.
func (p *phpParser) phpHeader(n, body *cst.Node) string {
	return p.f.headerFrom(firstChildExcept(n, "attribute_list", "comment"), n, body)
}

func phpAttributes(n *cst.Node) []string {
	var out []string
	for _, list := range n.ChildrenOfKind("attribute_list") {
		out = append(out, collapse(list.Text()))
	}
	return out
}

// phpVisibility reads the visibility modifier of a member; members
// without one are public.
func phpVisibility(n *cst.Node) extraction.Visibility {
	var mods []string
	if v := n.ChildOfKind("visibility_modifier"); v != nil {
		mods = append(mods, v.Text())
	}
	return visibility.Modifiers(mods, extraction.VisibilityPublic)
}

// newItem fills the parts every declaration shares.
func (p *phpParser) newItem(n *cst.Node, kind extraction.Kind, name string, owner *phpOwner) extraction.Item {
	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Visibility: phpVisibility(n),
		Metadata: extraction.Metadata{
			Attributes: phpAttributes(n),
			IsStatic:   n.HasChild("static_modifier"),
			IsAbstract: n.HasChild("abstract_modifier"),
		},
	}
	it.Doc, it.Metadata.DocSections = phpDoc(n)
	switch {
	case owner != nil:
		it.Metadata.OwnerName = owner.name
		it.Metadata.OwnerKind = owner.kind
	case p.namespace != "":
		it.Metadata.OwnerName = p.namespace
		it.Metadata.OwnerKind = extraction.KindModule
		it.Metadata.Path = p.namespace
	}
	return it
}

// extractClassLike handles classes, interfaces, traits and enums.
func (p *phpParser) extractClassLike(n *cst.Node, kind extraction.Kind) {
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return
	}
	it := p.newItem(n, kind, name, nil)
	it.Signature = p.phpHeader(n, body)
	for _, clause := range n.ChildrenOfKind("base_clause", "class_interface_clause") {
		for _, base := range clause.NamedChildren() {
			it.Metadata.BaseTypes = append(it.Metadata.BaseTypes, base.Text())
		}
	}
	if kind == extraction.KindInterface {
		it.Metadata.IsAbstract = true
	}
	idx := p.f.add(n, it)
	owner := &phpOwner{name: name, kind: kind, idx: idx, iface: kind == extraction.KindInterface}

	for _, m := range body.NamedChildren() {
		switch m.Kind() {
		case "method_declaration":
			p.extractFunction(m, owner)
		case "property_declaration":
			p.extractProperties(m, owner)
		case "const_declaration":
			p.extractConstants(m, owner)
		case "enum_case":
			p.f.items[idx].Metadata.Variants = append(p.f.items[idx].Metadata.Variants, fieldText(m, "name"))
		case "use_declaration":
			// Trait composition.
			for _, t := range m.NamedChildren() {
				if t.Kind() == "name" || t.Kind() == "qualified_name" {
					p.f.items[idx].Metadata.BaseTypes = appendUnique(p.f.items[idx].Metadata.BaseTypes, t.Text())
				}
			}
		}
	}
	p.extractMagicMembers(n, owner)
}

// extractFunction handles free functions and methods.
func (p *phpParser) extractFunction(n *cst.Node, owner *phpOwner) {
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return
	}
	kind := extraction.KindFunction
	if owner != nil {
		kind = extraction.KindMethod
		if strings.EqualFold(name, "__construct") {
			kind = extraction.KindConstructor
		}
	}
	it := p.newItem(n, kind, name, owner)
	it.Signature = trimBodyMarker(p.phpHeader(n, body), ";")
	it.Metadata.Parameters = paramTexts(n.Field("parameters"))
	it.Metadata.ReturnType = typeText(n.Field("return_type"))
	if owner != nil && owner.iface {
		it.Metadata.IsAbstract = true
	}
	p.f.add(n, it)

	if owner == nil {
		return
	}
	class := &p.f.items[owner.idx]
	class.Metadata.Methods = appendUnique(class.Metadata.Methods, name)

	// Promoted constructor parameters declare properties.
	if kind != extraction.KindConstructor {
		return
	}
	for _, param := range n.Field("parameters").ChildrenOfKind("property_promotion_parameter") {
		pname := strings.TrimPrefix(param.ChildOfKind("variable_name").Text(), "$")
		if pname == "" {
			continue
		}
		prop := p.newItem(param, extraction.KindProperty, pname, owner)
		prop.Doc, prop.Metadata.DocSections = "", nil
		prop.Signature = collapse(param.Text())
		prop.Metadata.ReturnType = collapse(param.Field("type").Text())
		p.f.add(param, prop)
		class := &p.f.items[owner.idx]
		class.Metadata.Fields = appendUnique(class.Metadata.Fields, pname)
	}
}

func (p *phpParser) extractProperties(n *cst.Node, owner *phpOwner) {
	typ := collapse(n.Field("type").Text())
	for _, el := range n.ChildrenOfKind("property_element") {
		name := strings.TrimPrefix(el.ChildOfKind("variable_name").Text(), "$")
		if name == "" {
			continue
		}
		it := p.newItem(n, extraction.KindProperty, name, owner)
		it.Signature = trimBodyMarker(collapse(firstLine(n)), ";")
		it.Metadata.ReturnType = typ
		if v := el.Field("default_value"); v != nil {
			it.Metadata.Value = collapse(v.Text())
		} else if init := el.ChildOfKind("property_initializer"); init != nil {
			it.Metadata.Value = collapse(strings.TrimPrefix(strings.TrimSpace(init.Text()), "="))
		}
		p.f.add(el, withSpan(it, n))
		class := &p.f.items[owner.idx]
		class.Metadata.Fields = appendUnique(class.Metadata.Fields, name)
	}
}

// extractConstants handles "const" at file scope and class constants.
func (p *phpParser) extractConstants(n *cst.Node, owner *phpOwner) {
	for _, el := range n.ChildrenOfKind("const_element") {
		name := el.ChildOfKind("name").Text()
		if name == "" {
			continue
		}
		it := p.newItem(n, extraction.KindConstant, name, owner)
		it.Signature = trimBodyMarker(collapse(firstLine(n)), ";")
		it.Metadata.IsStatic = owner != nil
		if vals := el.NamedChildren(); len(vals) > 1 {
			it.Metadata.Value = collapse(vals[len(vals)-1].Text())
		}
		p.f.add(el, withSpan(it, n))
		if owner != nil {
			class := &p.f.items[owner.idx]
			class.Metadata.Fields = appendUnique(class.Metadata.Fields, name)
		}
	}
}

// extractMagicMembers turns @property and @method tags in a class doc
// comment into members of the class.
func (p *phpParser) extractMagicMembers(n *cst.Node, owner *phpOwner) {
	sections := p.f.items[owner.idx].Metadata.DocSections
	if sections == nil {
		return
	}
	line := n.StartLine()
	for _, tag := range sections.Tags {
		var it extraction.Item
		switch tag.Name {
		case "property", "property-read", "property-write":
			typ, name, desc := parseMagicProperty(tag.Text)
			if name == "" {
				continue
			}
			it = extraction.Item{
				Kind:      extraction.KindProperty,
				Name:      name,
				Signature: "@" + tag.Name + " " + collapse(tag.Text),
				Doc:       desc,
				Metadata:  extraction.Metadata{ReturnType: typ},
			}
		case "method":
			m, ok := parseMagicMethod(tag.Text)
			if !ok {
				continue
			}
			it = m
			it.Signature = "@method " + collapse(tag.Text)
		default:
			continue
		}
		it.StartLine, it.EndLine = line, line
		it.Visibility = extraction.VisibilityPublic
		it.Metadata.OwnerName = owner.name
		it.Metadata.OwnerKind = owner.kind
		it.Metadata.Attributes = []string{"@" + tag.Name}
		p.f.push(it)

		c := &p.f.items[owner.idx]
		if it.Kind == extraction.KindMethod {
			c.Metadata.Methods = appendUnique(c.Metadata.Methods, it.Name)
		} else {
			c.Metadata.Fields = appendUnique(c.Metadata.Fields, it.Name)
		}
	}
}

// parseMagicProperty splits "Type $name description".
func parseMagicProperty(text string) (typ, name, desc string) {
	fields := strings.Fields(text)
	for i, f := range fields {
		if strings.HasPrefix(f, "$") {
			typ = strings.Join(fields[:i], " ")
			name = strings.TrimPrefix(f, "$")
			desc = strings.Join(fields[i+1:], " ")
			return typ, name, desc
		}
	}
	return "", "", ""
}

// parseMagicMethod splits "[static] [ReturnType] name(params) description".
func parseMagicMethod(text string) (extraction.Item, bool) {
	text = strings.TrimSpace(text)
	it := extraction.Item{Kind: extraction.KindMethod}
	if rest, ok := strings.CutPrefix(text, "static "); ok {
		it.Metadata.IsStatic = true
		text = strings.TrimSpace(rest)
	}
	open := strings.IndexByte(text, '(')
	end := strings.IndexByte(text, ')')
	if open <= 0 || end < open {
		return it, false
	}
	head := strings.Fields(text[:open])
	if len(head) == 0 {
		return it, false
	}
	it.Name = head[len(head)-1]
	it.Metadata.ReturnType = strings.Join(head[:len(head)-1], " ")
	for _, param := range strings.Split(text[open+1:end], ",") {
		if param = strings.TrimSpace(param); param != "" {
			it.Metadata.Parameters = append(it.Metadata.Parameters, param)
		}
	}
	it.Doc = strings.TrimSpace(text[end+1:])
	return it, true
}
