package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var rustDocComments = commentFilter{
	kinds: []string{"line_comment", "block_comment"},
	accept: func(text string) bool {
		return (strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////")) ||
			(strings.HasPrefix(text, "/**") && !strings.HasPrefix(text, "/***"))
	},
	skip: []string{"attribute_item"},
}

// rustParser extracts Rust items from module-level declaration lists. Impl
// and trait bodies are walked by their container builders only.
type rustParser struct {
	f *file
}

// rustOwner is the container a declaration list belongs to.
type rustOwner struct {
	name  string
	kind  extraction.Kind
	trait string // trait implemented by an impl block
	// members of traits and trait impls have the trait's visibility
	public bool
}

func extractRust(x *Extractor, f *file) error {
	tree, err := x.parse(f, cst.GrammarRust)
	if err != nil {
		return err
	}
	defer tree.Close()

	p := &rustParser{f: f}
	root := tree.Root()
	p.extractItems(root, "")
	p.linkImplMethods()
	p.enrichAttributes(root)
	return nil
}

// extractItems walks a source file or module body.
func (p *rustParser) extractItems(list *cst.Node, modPath string) {
	for _, n := range statementsOf(list) {
		switch n.Kind() {
		case "function_item", "function_signature_item":
			p.extractFunction(n, modPath, nil)
		case "struct_item":
			p.extractStruct(n, modPath, extraction.KindStruct)
		case "union_item":
			p.extractStruct(n, modPath, extraction.KindUnion)
		case "enum_item":
			p.extractEnum(n, modPath)
		case "trait_item":
			p.extractTrait(n, modPath)
		case "impl_item":
			p.extractImpl(n)
		case "const_item":
			p.extractValue(n, modPath, extraction.KindConstant)
		case "static_item":
			p.extractValue(n, modPath, extraction.KindStatic)
		case "type_item":
			p.extractTypeAlias(n, modPath)
		case "macro_definition":
			p.extractMacro(n, modPath)
		case "mod_item":
			p.extractModule(n, modPath)
		case "foreign_mod_item":
			if body := n.Field("body"); body != nil {
				p.extractItems(body, modPath)
			}
		}
	}
}

// newItem builds the common part of a module-level item.
func (p *rustParser) newItem(n *cst.Node, kind extraction.Kind, name, modPath string) extraction.Item {
	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Visibility: visibility.Rust(n.ChildOfKind("visibility_modifier").Text()),
	}
	it.Doc, it.Metadata.DocSections = rustDoc(n)
	if modPath != "" {
		it.Metadata.OwnerName = modPath
		it.Metadata.OwnerKind = extraction.KindModule
	}
	return it
}

func rustDoc(n *cst.Node) (string, *extraction.DocSections) {
	doc := commentDoc(precedingComments(n, rustDocComments))
	if doc == "" {
		return "", nil
	}
	return doc, docstyle.Rustdoc(doc)
}

// extractFunction extracts a free function, or a method when owner is set.
func (p *rustParser) extractFunction(n *cst.Node, modPath string, owner *rustOwner) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	body := n.Field("body")
	if brokenHeader(n, body) {
		return
	}

	kind := extraction.KindFunction
	if owner != nil {
		kind = extraction.KindMethod
	}
	it := p.newItem(n, kind, name, modPath)
	it.Signature = trimBodyMarker(p.f.header(n, body), ";")
	it.Metadata.Parameters = rustParams(n.Field("parameters"))
	it.Metadata.ReturnType = typeText(n.Field("return_type"))
	it.Metadata.Generics = childTexts(n.Field("type_parameters"))
	if mods := n.ChildOfKind("function_modifiers"); mods != nil {
		text := " " + mods.Text() + " "
		it.Metadata.IsAsync = strings.Contains(text, " async ")
		it.Metadata.IsUnsafe = strings.Contains(text, " unsafe ")
	}
	if owner != nil {
		it.Metadata.OwnerName = owner.name
		it.Metadata.OwnerKind = owner.kind
		it.Metadata.TraitName = owner.trait
		it.Metadata.IsStatic = !hasSelfParam(n.Field("parameters"))
		it.Metadata.IsAbstract = body == nil && owner.kind == extraction.KindTrait
		if owner.public {
			it.Visibility = extraction.VisibilityPublic
		}
	}
	p.f.add(n, it)
}

// rustParams returns the parameter texts without the receiver.
func rustParams(params *cst.Node) []string {
	var out []string
	for _, c := range params.NamedChildren() {
		switch c.Kind() {
		case "self_parameter", "attribute_item", "line_comment", "block_comment":
			continue
		}
		out = append(out, collapse(c.Text()))
	}
	return out
}

func hasSelfParam(params *cst.Node) bool {
	return params.ChildOfKind("self_parameter") != nil
}

// extractStruct extracts a struct or union and its named fields.
func (p *rustParser) extractStruct(n *cst.Node, modPath string, kind extraction.Kind) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	body := n.Field("body")
	it := p.newItem(n, kind, name, modPath)
	it.Signature = trimBodyMarker(p.f.header(n, body), ";")
	it.Metadata.Generics = childTexts(n.Field("type_parameters"))

	var fields []*cst.Node
	switch body.Kind() {
	case "field_declaration_list":
		fields = body.ChildrenOfKind("field_declaration")
		for _, fd := range fields {
			it.Metadata.Fields = append(it.Metadata.Fields, fieldText(fd, "name"))
		}
	case "ordered_field_declaration_list":
		// Tuple struct: fields are positional types.
		for _, t := range body.NamedChildren() {
			if t.Kind() != "visibility_modifier" && t.Kind() != "attribute_item" {
				it.Metadata.Fields = append(it.Metadata.Fields, collapse(t.Text()))
			}
		}
	}
	p.f.add(n, it)

	for _, fd := range fields {
		fname := fieldText(fd, "name")
		if fname == "" {
			continue
		}
		field := extraction.Item{
			Kind:       extraction.KindField,
			Name:       fname,
			Signature:  strings.TrimRight(collapse(fd.Text()), ","),
			Visibility: visibility.Rust(fd.ChildOfKind("visibility_modifier").Text()),
			Metadata: extraction.Metadata{
				ReturnType: collapse(fd.Field("type").Text()),
				OwnerName:  name,
				OwnerKind:  kind,
			},
		}
		field.Doc, field.Metadata.DocSections = rustDoc(fd)
		p.f.add(fd, field)
	}
}

// extractEnum extracts an enum with its variant names.
func (p *rustParser) extractEnum(n *cst.Node, modPath string) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	body := n.Field("body")
	it := p.newItem(n, extraction.KindEnum, name, modPath)
	it.Signature = p.f.header(n, body)
	it.Metadata.Generics = childTexts(n.Field("type_parameters"))
	for _, v := range body.ChildrenOfKind("enum_variant") {
		it.Metadata.Variants = append(it.Metadata.Variants, fieldText(v, "name"))
	}
	p.f.add(n, it)
}

// extractTrait extracts a trait and its method declarations.
func (p *rustParser) extractTrait(n *cst.Node, modPath string) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	body := n.Field("body")
	it := p.newItem(n, extraction.KindTrait, name, modPath)
	it.Signature = p.f.header(n, body)
	it.Metadata.Generics = childTexts(n.Field("type_parameters"))
	if bounds := n.Field("bounds"); bounds != nil {
		it.Metadata.BaseTypes = childTexts(bounds)
	}
	public := it.Visibility == extraction.VisibilityPublic
	var methods []*cst.Node
	for _, m := range body.NamedChildren() {
		if m.Kind() == "function_item" || m.Kind() == "function_signature_item" {
			methods = append(methods, m)
			it.Metadata.Methods = append(it.Metadata.Methods, fieldText(m, "name"))
		}
	}
	p.f.add(n, it)

	owner := &rustOwner{name: name, kind: extraction.KindTrait, public: public}
	for _, m := range methods {
		p.extractFunction(m, "", owner)
	}
}

// extractImpl extracts the methods of an impl block, owned by the
// implementing type.
func (p *rustParser) extractImpl(n *cst.Node) {
	typeName := rustTypeName(n.Field("type"))
	if typeName == "" {
		return
	}
	owner := &rustOwner{name: typeName, kind: extraction.KindStruct}
	if trait := n.Field("trait"); trait != nil {
		owner.trait = rustTypeName(trait)
		owner.public = true
	}
	for _, m := range n.Field("body").NamedChildren() {
		if m.Kind() == "function_item" {
			p.extractFunction(m, "", owner)
		}
	}
}

// rustTypeName strips generic arguments and path qualifiers from a type.
func rustTypeName(t *cst.Node) string {
	name := collapse(t.Text())
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return strings.TrimSpace(name)
}

// linkImplMethods records impl methods on the type they belong to and
// corrects the owner kind when the type is an enum or union.
func (p *rustParser) linkImplMethods() {
	types := make(map[string]int)
	for i, it := range p.f.items {
		switch it.Kind {
		case extraction.KindStruct, extraction.KindEnum, extraction.KindUnion:
			if _, seen := types[it.Name]; !seen {
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

// extractValue extracts a const or static item.
func (p *rustParser) extractValue(n *cst.Node, modPath string, kind extraction.Kind) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	value := n.Field("value")
	it := p.newItem(n, kind, name, modPath)
	it.Signature = trimBodyMarker(p.f.header(n, value), "=", ";")
	it.Metadata.ReturnType = collapse(n.Field("type").Text())
	it.Metadata.Value = collapse(value.Text())
	p.f.add(n, it)
}

func (p *rustParser) extractTypeAlias(n *cst.Node, modPath string) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	it := p.newItem(n, extraction.KindTypeAlias, name, modPath)
	it.Signature = trimBodyMarker(p.f.header(n, nil), ";")
	it.Metadata.Generics = childTexts(n.Field("type_parameters"))
	it.Metadata.Value = collapse(n.Field("type").Text())
	p.f.add(n, it)
}

// extractMacro extracts a macro_rules! definition. Exported macros are
// marked with #[macro_export], which the attribute pass records.
func (p *rustParser) extractMacro(n *cst.Node, modPath string) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	it := p.newItem(n, extraction.KindMacro, name, modPath)
	it.Signature = "macro_rules! " + name
	p.f.add(n, it)
}

// extractModule extracts a module and, for inline modules, its items.
func (p *rustParser) extractModule(n *cst.Node, modPath string) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	body := n.Field("body")
	path := name
	if modPath != "" {
		path = modPath + "::" + name
	}
	it := p.newItem(n, extraction.KindModule, name, modPath)
	it.Signature = trimBodyMarker(p.f.header(n, body), ";")
	it.Metadata.Path = path
	p.f.add(n, it)
	if body != nil {
		p.extractItems(body, path)
	}
}

// enrichAttributes attaches the outer attributes written above an item.
// Attributes are siblings of the item in the tree, not children, so they
// are collected in a second pass over every declaration list.
func (p *rustParser) enrichAttributes(root *cst.Node) {
	lists := append([]*cst.Node{root}, root.Descendants("declaration_list", "field_declaration_list")...)
	for _, list := range lists {
		var pending []string
		for _, c := range list.NamedChildren() {
			switch c.Kind() {
			case "attribute_item":
				pending = append(pending, collapse(c.Text()))
			case "line_comment", "block_comment":
			default:
				if it := p.f.at(c); it != nil && len(pending) > 0 {
					it.Metadata.Attributes = appendUnique(it.Metadata.Attributes, pending...)
					if it.Kind == extraction.KindMacro && containsAttr(pending, "#[macro_export]") {
						it.Visibility = extraction.VisibilityPublic
					}
				}
				pending = nil
			}
		}
	}
}

func containsAttr(attrs []string, want string) bool {
	for _, a := range attrs {
		if a == want {
			return true
		}
	}
	return false
}
