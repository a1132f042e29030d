package parsers

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var hookNamePattern = regexp.MustCompile(`^use[A-Z0-9]`)

var tsComments = commentFilter{
	kinds: []string{"comment"},
	skip:  []string{"decorator"},
}

// isHookName reports whether a function name follows the reactive-hook
// convention.
func isHookName(name string) bool {
	return name == "use" || hookNamePattern.MatchString(name)
}

// typeScriptParser extracts TypeScript, TSX and JavaScript. JavaScript is
// read with the TSX grammar, which accepts plain JS and JSX.
type typeScriptParser struct {
	f *file
	// names listed in export clauses ("export { a, b as c }")
	exports map[string]bool
	// names exported as the default export
	defaults map[string]bool
}

// tsContext describes where a declaration sits.
type tsContext struct {
	owner     string // enclosing namespace path
	exported  bool
	isDefault bool
	outer     *cst.Node // export or ambient wrapper, else the declaration
	name      string    // name for anonymous class expressions
}

func extractTypeScript(x *Extractor, f *file) error {
	g := cst.GrammarTypeScript
	if f.lang == extraction.LangTSX || f.lang == extraction.LangJavaScript {
		g = cst.GrammarTSX
	}
	tree, err := x.parse(f, g)
	if err != nil {
		return err
	}
	defer tree.Close()

	p := &typeScriptParser{
		f:        f,
		exports:  make(map[string]bool),
		defaults: make(map[string]bool),
	}
	root := tree.Root()
	p.extractStatements(root, "")
	p.applyExportClauses()
	p.enrichDecorators(root)
	p.enrichScopes(root)

	// Overloads and their implementation, merged interface and namespace
	// declarations, and accessor pairs are one symbol each.
	f.merge(mergeSpec{key: func(it *extraction.Item) (string, bool) {
		return mergeKey(it), true
	}})
	return nil
}

// extractStatements walks the statements of a program or namespace body.
func (p *typeScriptParser) extractStatements(block *cst.Node, ns string) {
	for _, n := range statementsOf(block) {
		switch n.Kind() {
		case "export_statement":
			p.extractExport(n, ns)
		case "ambient_declaration":
			for _, d := range n.NamedChildren() {
				p.extractDeclaration(d, tsContext{owner: ns, outer: n})
			}
		default:
			p.extractDeclaration(n, tsContext{owner: ns, outer: n})
		}
	}
}

// extractExport handles the export forms: wrapped declarations, default
// expressions, and export clauses.
func (p *typeScriptParser) extractExport(n *cst.Node, ns string) {
	isDefault := n.HasChild("default")
	if decl := n.Field("declaration"); decl != nil {
		p.extractDeclaration(decl, tsContext{owner: ns, exported: true, isDefault: isDefault, outer: n})
		return
	}
	if clause := n.ChildOfKind("export_clause"); clause != nil {
		if n.Field("source") != nil {
			// Re-exports name symbols of another module.
			return
		}
		for _, spec := range clause.NamedChildren() {
			name := fieldText(spec, "name")
			if name == "" {
				continue
			}
			p.exports[name] = true
			if fieldText(spec, "alias") == "default" {
				p.defaults[name] = true
			}
		}
		return
	}
	value := n.Field("value")
	if value == nil || !isDefault {
		return
	}
	ctx := tsContext{owner: ns, exported: true, isDefault: true, outer: n}
	switch value.Kind() {
	case "identifier":
		p.exports[value.Text()] = true
		p.defaults[value.Text()] = true
	case "arrow_function", "function_expression", "function", "generator_function":
		p.extractFunctionValue(n, value, p.defaultName(), "", ctx)
	case "class":
		ctx.name = p.defaultName()
		p.extractClass(value, ctx)
	}
}

func (p *typeScriptParser) defaultName() string {
	if p.f.name != "" {
		return p.f.name
	}
	return "default"
}

func (p *typeScriptParser) extractDeclaration(d *cst.Node, ctx tsContext) {
	switch d.Kind() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		p.extractFunction(d, ctx)
	case "class_declaration", "abstract_class_declaration", "class":
		p.extractClass(d, ctx)
	case "interface_declaration":
		p.extractInterface(d, ctx)
	case "type_alias_declaration":
		p.extractTypeAlias(d, ctx)
	case "enum_declaration":
		p.extractEnum(d, ctx)
	case "internal_module", "module":
		p.extractNamespace(d, ctx)
	case "lexical_declaration", "variable_declaration":
		p.extractVariables(d, ctx)
	case "expression_statement":
		// "namespace X {}" parses as an expression statement.
		if m := d.ChildOfKind("internal_module"); m != nil {
			p.extractNamespace(m, ctx)
		}
	case "ambient_declaration":
		for _, c := range d.NamedChildren() {
			p.extractDeclaration(c, ctx)
		}
	}
}

// newItem fills the fields every top-level or namespace-level item shares.
func (p *typeScriptParser) newItem(kind extraction.Kind, name string, ctx tsContext) extraction.Item {
	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Visibility: visibility.Exported(ctx.exported),
	}
	it.Doc, it.Metadata.DocSections = tsDoc(ctx.outer)
	it.Metadata.IsDefaultExport = ctx.isDefault
	if ctx.owner != "" {
		it.Metadata.OwnerName = ctx.owner
		it.Metadata.OwnerKind = extraction.KindModule
	}
	return it
}

// tsDoc returns the comment block above n, parsed as JSDoc when it uses
// the /** */ form.
func tsDoc(n *cst.Node) (string, *extraction.DocSections) {
	comments := precedingComments(n, tsComments)
	if len(comments) == 0 {
		return "", nil
	}
	doc := commentDoc(comments)
	if strings.HasPrefix(strings.TrimSpace(comments[len(comments)-1]), "/**") {
		return doc, docstyle.JSDoc(doc)
	}
	return doc, nil
}

// extractFunction extracts a function declaration or overload signature.
func (p *typeScriptParser) extractFunction(d *cst.Node, ctx tsContext) {
	name := fieldText(d, "name")
	if name == "" {
		return
	}
	body := d.Field("body")
	if brokenHeader(d, body) {
		return
	}
	it := p.newItem(extraction.KindFunction, name, ctx)
	it.Signature = trimBodyMarker(p.f.header(ctx.outer, body), ";")
	p.callableMetadata(&it, d)
	it.Metadata.IsGenerator = d.Kind() == "generator_function_declaration" || d.HasChild("*")
	it.Metadata.IsHook = isHookName(name)
	p.f.add(d, it)
}

// extractFunctionValue extracts a function bound to a name: a variable
// initializer or a default export.
func (p *typeScriptParser) extractFunctionValue(decl, fn *cst.Node, name, prefix string, ctx tsContext) {
	body := fn.Field("body")
	if brokenHeader(fn, body) {
		return
	}
	it := p.newItem(extraction.KindFunction, name, ctx)
	it.Signature = prefix + p.f.header(decl, body)
	p.callableMetadata(&it, fn)
	if param := fn.Field("parameter"); param != nil {
		it.Metadata.Parameters = []string{collapse(param.Text())}
	}
	it.Metadata.IsGenerator = fn.Kind() == "generator_function" || fn.HasChild("*")
	it.Metadata.IsHook = isHookName(name)
	idx := p.f.add(decl, it)
	p.f.anchor(fn, idx)
}

func (p *typeScriptParser) callableMetadata(it *extraction.Item, fn *cst.Node) {
	it.Metadata.Parameters = paramTexts(fn.Field("parameters"))
	it.Metadata.ReturnType = typeText(fn.Field("return_type"))
	it.Metadata.Generics = childTexts(fn.Field("type_parameters"))
	it.Metadata.IsAsync = fn.HasChild("async")
}

// extractClass extracts a class declaration and its members.
func (p *typeScriptParser) extractClass(d *cst.Node, ctx tsContext) {
	name := fieldText(d, "name")
	if name == "" {
		name = ctx.name
	}
	if name == "" {
		return
	}
	body := d.Field("body")
	if brokenHeader(d, body) {
		return
	}

	it := p.newItem(extraction.KindClass, name, ctx)
	it.Signature = p.f.header(ctx.outer, body)
	it.Metadata.IsAbstract = d.Kind() == "abstract_class_declaration"
	it.Metadata.Generics = childTexts(d.Field("type_parameters"))
	it.Metadata.Attributes = decoratorTexts(ctx.outer)
	if !ctx.outer.Same(d) {
		it.Metadata.Attributes = appendUnique(it.Metadata.Attributes, decoratorTexts(d)...)
	}
	if heritage := d.ChildOfKind("class_heritage"); heritage != nil {
		for _, clause := range heritage.NamedChildren() {
			switch clause.Kind() {
			case "extends_clause":
				text := strings.TrimSpace(strings.TrimPrefix(collapse(clause.Text()), "extends"))
				it.Metadata.BaseTypes = append(it.Metadata.BaseTypes, text)
			case "implements_clause":
				it.Metadata.BaseTypes = append(it.Metadata.BaseTypes, childTexts(clause)...)
			}
		}
	}
	idx := p.f.add(d, it)

	var methods, fields []string
	for _, m := range body.NamedChildren() {
		member := p.extractClassMember(m, name)
		if member == nil {
			continue
		}
		switch member.Kind {
		case extraction.KindField, extraction.KindProperty, extraction.KindIndexer:
			fields = append(fields, member.Name)
		default:
			methods = append(methods, member.Name)
		}
	}
	p.f.items[idx].Metadata.Methods = appendUnique(nil, methods...)
	p.f.items[idx].Metadata.Fields = appendUnique(nil, fields...)
}

// extractClassMember builds one member of a class body and returns it, or
// nil when the node is not a member.
func (p *typeScriptParser) extractClassMember(m *cst.Node, className string) *extraction.Item {
	var it extraction.Item
	switch m.Kind() {
	case "method_definition", "method_signature", "abstract_method_signature":
		name := fieldText(m, "name")
		if name == "" {
			return nil
		}
		body := m.Field("body")
		if brokenHeader(m, body) {
			return nil
		}
		it.Kind = extraction.KindMethod
		switch {
		case name == "constructor":
			it.Kind = extraction.KindConstructor
		case m.HasChild("get"), m.HasChild("set"):
			it.Kind = extraction.KindProperty
		}
		it.Name = name
		it.Signature = trimBodyMarker(p.f.header(m, body), ";")
		p.callableMetadata(&it, m)
		it.Metadata.IsGenerator = m.HasChild("*")
		it.Metadata.IsAbstract = m.Kind() == "abstract_method_signature" || m.HasChild("abstract")
		it.Metadata.IsHook = isHookName(name)

	case "public_field_definition":
		name := fieldText(m, "name")
		if name == "" {
			return nil
		}
		value := m.Field("value")
		it.Kind = extraction.KindField
		it.Name = name
		it.Signature = trimBodyMarker(p.f.header(m, value), "=", ";")
		it.Metadata.ReturnType = typeText(m.Field("type"))
		switch value.Kind() {
		case "arrow_function", "function_expression", "function":
			it.Kind = extraction.KindMethod
			p.callableMetadata(&it, value)
			it.Metadata.ReturnType = typeText(value.Field("return_type"))
		case "":
		default:
			it.Metadata.Value = firstLine(value)
		}

	case "index_signature":
		text := collapse(m.Text())
		it.Kind = extraction.KindIndexer
		it.Name = text
		if i := strings.IndexByte(text, ']'); i >= 0 {
			it.Name = text[:i+1]
		}
		it.Signature = strings.TrimRight(text, ";")

	default:
		return nil
	}

	it.Doc, it.Metadata.DocSections = tsDoc(m)
	it.Metadata.IsStatic = m.HasChild("static")
	it.Metadata.Attributes = decoratorTexts(m)
	it.Metadata.OwnerName = className
	it.Metadata.OwnerKind = extraction.KindClass
	it.Visibility = visibility.Modifiers(modifierTexts(m), extraction.VisibilityPublic)
	if strings.HasPrefix(it.Name, "#") {
		it.Visibility = extraction.VisibilityPrivate
	}
	idx := p.f.add(m, it)
	if value := m.Field("value"); value != nil && it.Kind == extraction.KindMethod {
		p.f.anchor(value, idx)
	}
	return &p.f.items[idx]
}

// modifierTexts returns the accessibility keywords of a class member.
func modifierTexts(m *cst.Node) []string {
	var mods []string
	for _, c := range m.ChildrenOfKind("accessibility_modifier") {
		mods = append(mods, c.Text())
	}
	return mods
}

// decoratorTexts returns the decorators that are direct children of n.
func decoratorTexts(n *cst.Node) []string {
	var out []string
	for _, c := range n.ChildrenOfKind("decorator") {
		out = append(out, collapse(c.Text()))
	}
	return out
}

// extractInterface extracts an interface and its member signatures.
func (p *typeScriptParser) extractInterface(d *cst.Node, ctx tsContext) {
	name := fieldText(d, "name")
	if name == "" {
		return
	}
	body := d.Field("body")
	it := p.newItem(extraction.KindInterface, name, ctx)
	it.Signature = p.f.header(ctx.outer, body)
	it.Metadata.Generics = childTexts(d.Field("type_parameters"))
	if ext := d.ChildOfKind("extends_type_clause"); ext != nil {
		it.Metadata.BaseTypes = childTexts(ext)
	}
	idx := p.f.add(d, it)

	var methods, fields []string
	for _, m := range body.NamedChildren() {
		var member extraction.Item
		switch m.Kind() {
		case "property_signature":
			member.Kind = extraction.KindProperty
			member.Name = fieldText(m, "name")
			member.Metadata.ReturnType = typeText(m.Field("type"))
			fields = append(fields, member.Name)
		case "method_signature":
			member.Kind = extraction.KindMethod
			member.Name = fieldText(m, "name")
			p.callableMetadata(&member, m)
			methods = append(methods, member.Name)
		case "call_signature":
			member.Kind = extraction.KindMethod
			member.Name = "call"
			p.callableMetadata(&member, m)
		case "construct_signature":
			member.Kind = extraction.KindConstructor
			member.Name = "new"
			p.callableMetadata(&member, m)
		case "index_signature":
			member.Kind = extraction.KindIndexer
			text := collapse(m.Text())
			member.Name = text
			if i := strings.IndexByte(text, ']'); i >= 0 {
				member.Name = text[:i+1]
			}
		default:
			continue
		}
		if member.Name == "" {
			continue
		}
		member.Signature = strings.TrimRight(collapse(m.Text()), ";,")
		member.Doc, member.Metadata.DocSections = tsDoc(m)
		member.Visibility = extraction.VisibilityPublic
		member.Metadata.OwnerName = name
		member.Metadata.OwnerKind = extraction.KindInterface
		p.f.add(m, member)
	}
	p.f.items[idx].Metadata.Methods = appendUnique(nil, methods...)
	p.f.items[idx].Metadata.Fields = appendUnique(nil, fields...)
}

// extractTypeAlias extracts a type alias declaration.
func (p *typeScriptParser) extractTypeAlias(d *cst.Node, ctx tsContext) {
	name := fieldText(d, "name")
	if name == "" {
		return
	}
	it := p.newItem(extraction.KindTypeAlias, name, ctx)
	it.Signature = trimBodyMarker(p.f.header(ctx.outer, nil), ";")
	it.Metadata.Generics = childTexts(d.Field("type_parameters"))
	it.Metadata.Value = collapse(d.Field("value").Text())
	p.f.add(d, it)
}

// extractEnum extracts an enum declaration with its members as variants.
func (p *typeScriptParser) extractEnum(d *cst.Node, ctx tsContext) {
	name := fieldText(d, "name")
	if name == "" {
		return
	}
	body := d.Field("body")
	it := p.newItem(extraction.KindEnum, name, ctx)
	it.Signature = p.f.header(ctx.outer, body)
	for _, m := range body.NamedChildren() {
		switch m.Kind() {
		case "property_identifier", "string":
			it.Metadata.Variants = append(it.Metadata.Variants, m.Text())
		case "enum_assignment":
			it.Metadata.Variants = append(it.Metadata.Variants, fieldText(m, "name"))
		}
	}
	p.f.add(d, it)
}

// extractNamespace extracts a namespace or ambient module and its contents.
func (p *typeScriptParser) extractNamespace(d *cst.Node, ctx tsContext) {
	name := strings.Trim(fieldText(d, "name"), `"'`)
	if name == "" {
		return
	}
	body := d.Field("body")
	path := name
	if ctx.owner != "" {
		path = ctx.owner + "." + name
	}
	it := p.newItem(extraction.KindModule, name, ctx)
	it.Signature = p.f.header(ctx.outer, body)
	it.Metadata.Path = path
	p.f.add(d, it)
	if body != nil {
		p.extractStatements(body, path)
	}
}

// extractVariables extracts function-valued bindings of a const/let/var
// declaration, plus constants that are exported or constant-named.
func (p *typeScriptParser) extractVariables(d *cst.Node, ctx tsContext) {
	keyword := d.Child(0).Text()
	prefix := keyword + " "
	if ctx.exported {
		prefix = "export " + prefix
	}
	for _, vd := range d.ChildrenOfKind("variable_declarator") {
		nameNode := vd.Field("name")
		if nameNode.Kind() != "identifier" {
			continue
		}
		name := nameNode.Text()
		value := vd.Field("value")

		switch value.Kind() {
		case "arrow_function", "function_expression", "function", "generator_function":
			p.extractFunctionValue(vd, value, name, prefix, ctx)
			continue
		case "class":
			p.extractClass(value, tsContext{owner: ctx.owner, exported: ctx.exported, outer: ctx.outer, name: name})
			continue
		}

		if !ctx.exported && !isConstantName(name) {
			continue
		}
		kind := extraction.KindConstant
		if keyword != "const" {
			kind = extraction.KindStatic
		}
		it := p.newItem(kind, name, ctx)
		it.Signature = prefix + trimBodyMarker(p.f.header(vd, value), "=")
		it.Metadata.ReturnType = typeText(vd.Field("type"))
		if value != nil {
			it.Metadata.Value = firstLine(value)
		}
		p.f.add(vd, it)
	}
}

// applyExportClauses upgrades top-level items named by an export clause or
// a default export of an identifier.
func (p *typeScriptParser) applyExportClauses() {
	if len(p.exports) == 0 {
		return
	}
	for i := range p.f.items {
		it := &p.f.items[i]
		if it.Metadata.OwnerName != "" || !p.exports[it.Name] {
			continue
		}
		it.Visibility = extraction.VisibilityExported
		if p.defaults[it.Name] {
			it.Metadata.IsDefaultExport = true
		}
	}
}

// enrichDecorators attaches decorators that precede a class member as
// siblings in the class body.
func (p *typeScriptParser) enrichDecorators(root *cst.Node) {
	for _, body := range root.Descendants("class_body") {
		var pending []string
		for _, c := range body.NamedChildren() {
			switch {
			case c.Kind() == "decorator":
				pending = append(pending, collapse(c.Text()))
			case c.Kind() == "comment":
			default:
				if it := p.f.at(c); it != nil && len(pending) > 0 && isMemberKind(it.Kind) {
					it.Metadata.Attributes = appendUnique(it.Metadata.Attributes, pending...)
				}
				pending = nil
			}
		}
	}
}

func isMemberKind(k extraction.Kind) bool {
	switch k {
	case extraction.KindMethod, extraction.KindConstructor, extraction.KindProperty, extraction.KindField:
		return true
	}
	return false
}

var tsFunctionKinds = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// enrichScopes makes one pass over the tree carrying the stack of open
// function scopes, and records hook calls and JSX element names on the
// innermost enclosing function that produced an item.
func (p *typeScriptParser) enrichScopes(root *cst.Node) {
	var scopes []int
	current := func() *extraction.Item {
		for i := len(scopes) - 1; i >= 0; i-- {
			if scopes[i] >= 0 {
				return &p.f.items[scopes[i]]
			}
		}
		return nil
	}

	var visit func(n *cst.Node)
	visit = func(n *cst.Node) {
		opened := false
		if tsFunctionKinds[n.Kind()] {
			idx := -1
			if i, ok := p.f.anchors[n.StartByte()]; ok {
				if k := p.f.items[i].Kind; k.IsCallable() || k == extraction.KindProperty {
					idx = i
				}
			}
			scopes = append(scopes, idx)
			opened = true
		}

		switch n.Kind() {
		case "call_expression":
			if name := calleeName(n.Field("function")); isHookName(name) {
				if it := current(); it != nil {
					it.Metadata.Hooks = appendUnique(it.Metadata.Hooks, name)
				}
			}
		case "jsx_opening_element", "jsx_self_closing_element":
			if name := fieldText(n, "name"); name != "" {
				if it := current(); it != nil {
					it.Metadata.JSXElements = appendUnique(it.Metadata.JSXElements, name)
				}
			}
		}

		for _, c := range n.NamedChildren() {
			visit(c)
		}
		if opened {
			scopes = scopes[:len(scopes)-1]
		}
	}
	visit(root)

	for i := range p.f.items {
		it := &p.f.items[i]
		if it.Kind.IsCallable() && len(it.Metadata.JSXElements) > 0 && isUpperIdent(it.Name) {
			it.Metadata.IsComponent = true
		}
	}
}

// calleeName returns the called identifier, or the property of a member
// call such as React.useState.
func calleeName(fn *cst.Node) string {
	switch fn.Kind() {
	case "identifier":
		return fn.Text()
	case "member_expression":
		return fieldText(fn, "property")
	}
	return ""
}
