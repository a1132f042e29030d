package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var pythonComments = commentFilter{kinds: []string{"comment"}}

// pythonParser extracts module-level definitions and class members.
type pythonParser struct {
	f       *file
	exports map[string]bool // names listed in __all__
}

func extractPython(x *Extractor, f *file) error {
	tree, err := x.parse(f, cst.GrammarPython)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.Root()
	p := &pythonParser{f: f, exports: pythonExports(root)}
	p.extractBlock(root, "")

	// @overload stubs, property accessors and redefinitions collapse into
	// one item per kind, name and owner.
	f.merge(mergeSpec{key: func(it *extraction.Item) (string, bool) {
		return mergeKey(it), true
	}})
	return nil
}

// pythonExports reads the module's __all__ list, including += extensions.
func pythonExports(root *cst.Node) map[string]bool {
	exports := make(map[string]bool)
	for _, stmt := range root.ChildrenOfKind("expression_statement") {
		assign := stmt.ChildOfKind("assignment", "augmented_assignment")
		if fieldText(assign, "left") != "__all__" {
			continue
		}
		for _, s := range assign.Field("right").NamedChildren() {
			if s.Kind() == "string" {
				exports[pythonString(s)] = true
			}
		}
	}
	return exports
}

// extractBlock walks a module or class body. owner is the enclosing class.
func (p *pythonParser) extractBlock(block *cst.Node, owner string) {
	for _, n := range statementsOf(block) {
		decl, decorators := n, []string(nil)
		if n.Kind() == "decorated_definition" {
			decl = n.Field("definition")
			for _, d := range n.ChildrenOfKind("decorator") {
				decorators = append(decorators, collapse(d.Text()))
			}
		}
		switch decl.Kind() {
		case "function_definition":
			p.extractFunction(n, decl, decorators, owner)
		case "class_definition":
			p.extractClass(n, decl, decorators, owner)
		case "expression_statement":
			p.extractAssignment(decl, owner)
		case "type_alias_statement":
			p.extractTypeStatement(decl, owner)
		}
	}
}

func (p *pythonParser) visibility(name, owner string) extraction.Visibility {
	if owner != "" {
		return visibility.Python(name, nil)
	}
	return visibility.Python(name, p.exports)
}

// doc returns the docstring of a body, or the comment block above outer.
func (p *pythonParser) doc(outer, body *cst.Node) (string, *extraction.DocSections) {
	if doc := docstring(body); doc != "" {
		return doc, docstyle.Python(doc)
	}
	if doc := commentDoc(precedingComments(outer, pythonComments)); doc != "" {
		return doc, docstyle.Python(doc)
	}
	return "", nil
}

// docstring returns the dedented first string statement of a body.
func docstring(body *cst.Node) string {
	first := body.NamedChild(0)
	if first.Kind() != "expression_statement" {
		return ""
	}
	s := first.NamedChild(0)
	if s.Kind() != "string" {
		return ""
	}
	return strings.TrimSpace(docstyle.Dedent(pythonString(s)))
}

// pythonString returns a string literal's content without prefix or quotes.
func pythonString(s *cst.Node) string {
	text := strings.TrimLeft(s.Text(), "rRuUbBfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}

func (p *pythonParser) extractFunction(outer, fn *cst.Node, decorators []string, owner string) {
	name := fieldText(fn, "name")
	body := fn.Field("body")
	if name == "" || brokenHeader(fn, body) {
		return
	}

	kind := extraction.KindFunction
	if owner != "" {
		kind = extraction.KindMethod
		if name == "__init__" {
			kind = extraction.KindConstructor
		}
	}
	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Signature:  trimBodyMarker(p.f.header(fn, body), ":"),
		Visibility: p.visibility(name, owner),
		Metadata: extraction.Metadata{
			Parameters:  paramTexts(fn.Field("parameters"), "self", "cls"),
			ReturnType:  typeText(fn.Field("return_type")),
			Generics:    childTexts(fn.Field("type_parameters")),
			Attributes:  decorators,
			IsAsync:     fn.Child(0).Kind() == "async",
			IsGenerator: yields(body),
		},
	}
	it.Doc, it.Metadata.DocSections = p.doc(outer, body)
	if owner != "" {
		it.Metadata.OwnerName = owner
		it.Metadata.OwnerKind = extraction.KindClass
	}
	for _, d := range decorators {
		switch dec := strings.TrimPrefix(d, "@"); {
		case dec == "staticmethod" || dec == "classmethod":
			it.Metadata.IsStatic = true
		case dec == "abstractmethod" || strings.HasSuffix(dec, ".abstractmethod"):
			it.Metadata.IsAbstract = true
		case owner != "" && (dec == "property" || dec == "cached_property" || strings.HasSuffix(dec, ".cached_property")):
			it.Kind = extraction.KindProperty
		case owner != "" && isAccessorDecorator(dec):
			it.Kind = extraction.KindProperty
		}
	}
	p.f.add(outer, it)
}

// isAccessorDecorator matches @x.setter and @x.deleter.
func isAccessorDecorator(name string) bool {
	return strings.HasSuffix(name, ".setter") || strings.HasSuffix(name, ".deleter") || strings.HasSuffix(name, ".getter")
}

// yields reports whether a function body yields, not counting nested
// functions, classes or lambdas.
func yields(body *cst.Node) bool {
	found := false
	body.Walk(func(n *cst.Node) bool {
		if found {
			return false
		}
		switch n.Kind() {
		case "yield":
			found = true
			return false
		case "function_definition", "class_definition", "lambda":
			return false
		}
		return true
	})
	return found
}

func (p *pythonParser) extractClass(outer, cls *cst.Node, decorators []string, owner string) {
	name := fieldText(cls, "name")
	body := cls.Field("body")
	if name == "" || brokenHeader(cls, body) {
		return
	}
	it := extraction.Item{
		Kind:       extraction.KindClass,
		Name:       name,
		Signature:  trimBodyMarker(p.f.header(cls, body), ":"),
		Visibility: p.visibility(name, owner),
		Metadata: extraction.Metadata{
			Generics:   childTexts(cls.Field("type_parameters")),
			Attributes: decorators,
		},
	}
	it.Doc, it.Metadata.DocSections = p.doc(outer, body)
	for _, base := range cls.Field("superclasses").NamedChildren() {
		if base.Kind() == "keyword_argument" {
			if fieldText(base, "name") == "metaclass" && strings.Contains(base.Text(), "ABCMeta") {
				it.Metadata.IsAbstract = true
			}
			continue
		}
		it.Metadata.BaseTypes = append(it.Metadata.BaseTypes, collapse(base.Text()))
		if base.Text() == "ABC" || base.Text() == "abc.ABC" {
			it.Metadata.IsAbstract = true
		}
	}
	if owner != "" {
		it.Metadata.OwnerName = owner
		it.Metadata.OwnerKind = extraction.KindClass
	}
	idx := p.f.add(outer, it)

	start := len(p.f.items)
	p.extractBlock(body, name)
	class := &p.f.items[idx]
	for _, m := range p.f.items[start:] {
		if m.Metadata.OwnerName != name {
			continue
		}
		switch m.Kind {
		case extraction.KindMethod, extraction.KindConstructor:
			class.Metadata.Methods = appendUnique(class.Metadata.Methods, m.Name)
		case extraction.KindField, extraction.KindProperty, extraction.KindConstant:
			class.Metadata.Fields = appendUnique(class.Metadata.Fields, m.Name)
		}
	}
}

// extractAssignment handles module constants, type aliases and class-level
// fields. Plain module variables are not symbols.
func (p *pythonParser) extractAssignment(stmt *cst.Node, owner string) {
	assign := stmt.ChildOfKind("assignment")
	left := assign.Field("left")
	if left.Kind() != "identifier" {
		return
	}
	name := left.Text()
	typ := collapse(assign.Field("type").Text())
	value := collapse(assign.Field("right").Text())

	var kind extraction.Kind
	switch {
	case typ == "TypeAlias" || strings.HasSuffix(typ, ".TypeAlias"):
		kind = extraction.KindTypeAlias
	case name == "__all__":
		return
	case isConstantName(strings.TrimLeft(name, "_")):
		kind = extraction.KindConstant
	case owner != "":
		kind = extraction.KindField
	case isTypeVarCall(assign.Field("right")):
		kind = extraction.KindTypeAlias
	default:
		return
	}

	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Signature:  firstLine(stmt),
		Visibility: p.visibility(name, owner),
		Metadata: extraction.Metadata{
			ReturnType: typ,
			Value:      value,
		},
	}
	it.Doc = commentDoc(precedingComments(stmt, pythonComments))
	if owner != "" {
		it.Metadata.OwnerName = owner
		it.Metadata.OwnerKind = extraction.KindClass
	}
	p.f.add(stmt, it)
}

// isTypeVarCall matches T = TypeVar("T") and NewType declarations.
func isTypeVarCall(v *cst.Node) bool {
	if v.Kind() != "call" {
		return false
	}
	switch fn := fieldText(v, "function"); fn {
	case "TypeVar", "NewType", "ParamSpec", "TypeVarTuple", "typing.TypeVar", "typing.NewType":
		return true
	}
	return false
}

// extractTypeStatement handles the 3.12 "type X = ..." statement.
func (p *pythonParser) extractTypeStatement(n *cst.Node, owner string) {
	types := n.ChildrenOfKind("type")
	if len(types) == 0 {
		return
	}
	name := types[0].Text()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	it := extraction.Item{
		Kind:       extraction.KindTypeAlias,
		Name:       strings.TrimSpace(name),
		Signature:  firstLine(n),
		Visibility: p.visibility(name, owner),
	}
	if len(types) > 1 {
		it.Metadata.Value = collapse(types[len(types)-1].Text())
	}
	it.Doc = commentDoc(precedingComments(n, pythonComments))
	if owner != "" {
		it.Metadata.OwnerName = owner
		it.Metadata.OwnerKind = extraction.KindClass
	}
	p.f.add(n, it)
}
