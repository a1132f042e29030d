package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var cComments = commentFilter{kinds: []string{"comment"}}

// cParser extracts file-scope declarations from C sources and headers.
type cParser struct {
	f *file
}

func extractC(x *Extractor, f *file) error {
	tree, err := x.parse(f, cst.GrammarC)
	if err != nil {
		return err
	}
	defer tree.Close()

	p := &cParser{f: f}
	p.extractTopLevel(tree.Root())

	// A prototype and its definition, or an extern declaration and its
	// definition, are one item.
	f.merge(mergeSpec{key: func(it *extraction.Item) (string, bool) {
		return mergeKey(it), true
	}})
	return nil
}

// extractTopLevel walks file scope, descending through conditional
// compilation blocks and extern "C" linkage blocks.
func (p *cParser) extractTopLevel(list *cst.Node) {
	for _, n := range statementsOf(list) {
		switch n.Kind() {
		case "function_definition":
			p.extractFunction(n)
		case "declaration":
			p.extractDeclaration(n)
		case "type_definition":
			p.extractTypedef(n)
		case "struct_specifier", "union_specifier", "enum_specifier":
			p.extractRecord(n, n, "")
		case "preproc_def":
			p.extractDefine(n)
		case "preproc_function_def":
			p.extractMacro(n)
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
			p.extractTopLevel(n)
		case "linkage_specification":
			body := n.Field("body")
			if body.Kind() == "declaration_list" {
				p.extractTopLevel(body)
			} else {
				p.extractTopLevel(n)
			}
		}
	}
}

func cDoc(n *cst.Node) (string, *extraction.DocSections) {
	doc := commentDoc(precedingComments(n, cComments))
	if doc == "" {
		return "", nil
	}
	return doc, docstyle.Doxygen(doc)
}

func isStatic(n *cst.Node) bool {
	for _, s := range n.ChildrenOfKind("storage_class_specifier") {
		if s.Text() == "static" {
			return true
		}
	}
	return false
}

func hasTypeQualifier(n *cst.Node, q string) bool {
	for _, s := range n.ChildrenOfKind("type_qualifier") {
		if s.Text() == q {
			return true
		}
	}
	return false
}

// cDeclarator unwraps a declarator to its identifier. fn is the function
// declarator when the declaration declares a function (not a function
// pointer), and stars counts the pointer levels applied to the base type.
func cDeclarator(d *cst.Node) (name string, fn *cst.Node, stars int) {
	for d != nil {
		switch d.Kind() {
		case "identifier", "field_identifier", "type_identifier", "primitive_type":
			return d.Text(), fn, stars
		case "function_declarator":
			if fn == nil {
				fn = d
			}
			d = d.Field("declarator")
		case "parenthesized_declarator":
			// (*fp)(int) declares a pointer to a function.
			fn = nil
			d = d.NamedChild(0)
		case "pointer_declarator":
			if fn == nil {
				stars++
			}
			d = d.Field("declarator")
		case "init_declarator", "array_declarator", "attributed_declarator":
			d = d.Field("declarator")
		default:
			return "", nil, 0
		}
	}
	return "", nil, 0
}

func (p *cParser) extractFunction(n *cst.Node) {
	body := n.Field("body")
	name, fn, stars := cDeclarator(n.Field("declarator"))
	if name == "" || fn == nil || brokenHeader(n, body) {
		return
	}
	it := p.function(n, fn, name, stars)
	it.Signature = p.f.header(n, body)
	p.f.add(n, it)
}

func (p *cParser) function(n, fn *cst.Node, name string, stars int) extraction.Item {
	it := extraction.Item{
		Kind:       extraction.KindFunction,
		Name:       name,
		Visibility: visibility.CStorage(isStatic(n)),
		Metadata: extraction.Metadata{
			Parameters: cParams(fn.Field("parameters")),
			ReturnType: collapse(n.Field("type").Text()) + strings.Repeat("*", stars),
		},
	}
	if q := n.ChildOfKind("type_qualifier"); q != nil {
		it.Metadata.ReturnType = q.Text() + " " + it.Metadata.ReturnType
	}
	it.Doc, it.Metadata.DocSections = cDoc(n)
	return it
}

// cParams returns parameter texts; a lone "void" means no parameters.
func cParams(params *cst.Node) []string {
	out := paramTexts(params)
	if len(out) == 1 && out[0] == "void" {
		return nil
	}
	return out
}

// extractDeclaration handles prototypes, globals and records declared
// together with a variable.
func (p *cParser) extractDeclaration(n *cst.Node) {
	if rec := n.Field("type"); hasRecordBody(rec) {
		p.extractRecord(rec, n, "")
	}
	static := isStatic(n)
	for _, d := range n.Children() {
		isDeclarator := strings.HasSuffix(d.Kind(), "declarator") || d.Kind() == "identifier"
		if !d.IsNamed() || !isDeclarator || d.Same(n.Field("type")) {
			continue
		}
		name, fn, stars := cDeclarator(d)
		if name == "" {
			continue
		}
		if fn != nil {
			it := p.function(n, fn, name, stars)
			it.Signature = trimBodyMarker(p.f.header(n, nil), ";")
			p.f.add(n, it)
			continue
		}

		kind := extraction.KindStatic
		if hasTypeQualifier(n, "const") && stars == 0 {
			kind = extraction.KindConstant
		}
		it := extraction.Item{
			Kind:       kind,
			Name:       name,
			Signature:  trimBodyMarker(collapse(firstLine(n)), ";"),
			Visibility: visibility.CStorage(static),
			Metadata: extraction.Metadata{
				ReturnType: collapse(n.Field("type").Text()) + strings.Repeat("*", stars),
			},
		}
		if d.Kind() == "init_declarator" {
			it.Metadata.Value = collapse(d.Field("value").Text())
		}
		it.Doc, it.Metadata.DocSections = cDoc(n)
		p.f.add(d, withSpan(it, n))
	}
}

func hasRecordBody(n *cst.Node) bool {
	switch n.Kind() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		return n.Field("body") != nil
	}
	return false
}

// extractTypedef emits the record a typedef defines inline and the alias
// itself. An anonymous record takes the alias name instead.
func (p *cParser) extractTypedef(n *cst.Node) {
	typ := n.Field("type")
	var aliases []string
	for _, d := range n.ChildrenOfKind("type_identifier", "pointer_declarator", "function_declarator", "array_declarator") {
		if d.Same(typ) {
			continue
		}
		if name, _, _ := cDeclarator(d); name != "" {
			aliases = append(aliases, name)
		}
	}
	if len(aliases) == 0 {
		return
	}

	if hasRecordBody(typ) {
		if fieldText(typ, "name") == "" {
			p.extractRecord(typ, n, aliases[0])
			aliases = aliases[1:]
		} else {
			p.extractRecord(typ, n, "")
		}
	}
	for _, alias := range aliases {
		it := extraction.Item{
			Kind:       extraction.KindTypeAlias,
			Name:       alias,
			Signature:  trimBodyMarker(p.f.header(n, typ.Field("body")), ";"),
			Visibility: extraction.VisibilityPublic,
			Metadata: extraction.Metadata{
				Value: collapse(typ.Text()),
			},
		}
		if typ.Field("body") != nil {
			it.Metadata.Value = strings.TrimSpace(strings.TrimPrefix(p.f.header(typ, typ.Field("body")), "typedef"))
			it.Signature = "typedef " + it.Metadata.Value + " " + alias
		}
		it.Doc, it.Metadata.DocSections = cDoc(n)
		p.f.push(withSpan(it, n))
	}
}

// extractRecord emits a struct, union or enum with a body. decl is the
// statement the specifier appears in, used for docs and the span.
func (p *cParser) extractRecord(rec, decl *cst.Node, fallbackName string) {
	body := rec.Field("body")
	if body == nil {
		return
	}
	name := fieldText(rec, "name")
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return
	}

	var kind extraction.Kind
	switch rec.Kind() {
	case "struct_specifier":
		kind = extraction.KindStruct
	case "union_specifier":
		kind = extraction.KindUnion
	default:
		kind = extraction.KindEnum
	}
	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Signature:  p.f.header(rec, body),
		Visibility: extraction.VisibilityPublic,
	}
	if fallbackName != "" {
		it.Signature = "typedef " + it.Signature + " " + fallbackName
	}
	it.Doc, it.Metadata.DocSections = cDoc(decl)

	var fields []*cst.Node
	if kind == extraction.KindEnum {
		for _, e := range body.ChildrenOfKind("enumerator") {
			it.Metadata.Variants = append(it.Metadata.Variants, fieldText(e, "name"))
		}
	} else {
		fields = body.ChildrenOfKind("field_declaration")
	}
	idx := p.f.add(decl, withSpan(it, decl))

	for _, fd := range fields {
		for _, d := range fd.Children() {
			if !d.IsNamed() || d.Same(fd.Field("type")) || !(d.Kind() == "field_identifier" || strings.HasSuffix(d.Kind(), "declarator")) {
				continue
			}
			fname, _, stars := cDeclarator(d)
			if fname == "" {
				continue
			}
			p.f.items[idx].Metadata.Fields = append(p.f.items[idx].Metadata.Fields, fname)
			field := extraction.Item{
				Kind:       extraction.KindField,
				Name:       fname,
				Signature:  trimBodyMarker(collapse(fd.Text()), ";"),
				Visibility: extraction.VisibilityPublic,
				Metadata: extraction.Metadata{
					ReturnType: collapse(fd.Field("type").Text()) + strings.Repeat("*", stars),
					OwnerName:  name,
					OwnerKind:  kind,
				},
			}
			field.Doc, _ = cDoc(fd)
			if field.Doc == "" {
				field.Doc = trailingComment(fd)
			}
			p.f.add(fd, field)
		}
	}
}

// extractDefine emits an object-like macro with a value as a constant.
// Valueless defines (include guards, feature flags) are skipped.
func (p *cParser) extractDefine(n *cst.Node) {
	name := fieldText(n, "name")
	value := strings.TrimSpace(fieldText(n, "value"))
	if name == "" || value == "" {
		return
	}
	it := extraction.Item{
		Kind:       extraction.KindConstant,
		Name:       name,
		Signature:  "#define " + name + " " + collapse(value),
		Visibility: extraction.VisibilityPublic,
		Metadata:   extraction.Metadata{Value: collapse(value)},
	}
	it.Doc, it.Metadata.DocSections = cDoc(n)
	p.f.add(n, it)
}

// extractMacro emits a function-like macro.
func (p *cParser) extractMacro(n *cst.Node) {
	name := fieldText(n, "name")
	if name == "" {
		return
	}
	params := n.Field("parameters")
	it := extraction.Item{
		Kind:       extraction.KindMacro,
		Name:       name,
		Signature:  "#define " + name + collapse(params.Text()),
		Visibility: extraction.VisibilityPublic,
		Metadata: extraction.Metadata{
			Parameters: childTexts(params),
			Value:      collapse(fieldText(n, "value")),
		},
	}
	it.Doc, it.Metadata.DocSections = cDoc(n)
	p.f.add(n, it)
}
