package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/mvp-joe/symdex/internal/indexer/visibility"
)

var rubyComments = commentFilter{kinds: []string{"comment"}}

// rubyParser extracts classes, modules and their members.
type rubyParser struct {
	f *file
}

// rubyScope is the class or module body being walked. vis is the default
// set by a bare private/protected/public call; named overrides single
// methods.
type rubyScope struct {
	path      string // qualified name, A::B
	kind      extraction.Kind
	idx       int
	vis       extraction.Visibility
	named     map[string]extraction.Visibility
	singleton bool // inside class << self
	function  bool // after module_function
}

func extractRuby(x *Extractor, f *file) error {
	tree, err := x.parse(f, cst.GrammarRuby)
	if err != nil {
		return err
	}
	defer tree.Close()

	p := &rubyParser{f: f}
	p.extractBody(tree.Root(), nil)

	// Reopened classes and modules, and methods redefined in them, collapse
	// into their first definition.
	f.merge(mergeSpec{key: func(it *extraction.Item) (string, bool) {
		return mergeKey(it), true
	}})
	return nil
}

func rubyDoc(n *cst.Node) (string, *extraction.DocSections) {
	doc := commentDoc(precedingComments(n, rubyComments))
	if doc == "" {
		return "", nil
	}
	return doc, docstyle.YARD(doc)
}

// extractBody walks a program, class or module body.
func (p *rubyParser) extractBody(body *cst.Node, scope *rubyScope) {
	stmts := statementsOf(body)
	// Named visibility calls may follow the methods they name.
	if scope != nil {
		for _, n := range stmts {
			p.collectNamedVisibility(n, scope)
		}
	}
	for _, n := range stmts {
		switch n.Kind() {
		case "class":
			p.extractContainer(n, scope, extraction.KindClass)
		case "module":
			p.extractContainer(n, scope, extraction.KindModule)
		case "method":
			p.extractMethod(n, scope, false)
		case "singleton_method":
			p.extractMethod(n, scope, true)
		case "singleton_class":
			if scope != nil && n.Field("value").Text() == "self" {
				inner := *scope
				inner.singleton = true
				p.extractBody(n.Field("body"), &inner)
			}
		case "assignment":
			p.extractConstant(n, scope)
		case "identifier":
			p.visibilitySection(n.Text(), scope)
		case "call":
			p.extractCall(n, scope)
		}
	}
}

// visibilitySection applies a bare private, protected, public or
// module_function line.
func (p *rubyParser) visibilitySection(word string, scope *rubyScope) {
	if scope == nil {
		return
	}
	switch word {
	case "private", "protected", "public":
		scope.vis = visibility.Modifiers([]string{word}, extraction.VisibilityPublic)
		scope.function = false
	case "module_function":
		scope.function = true
	}
}

// collectNamedVisibility records "private :a, :b" style calls.
func (p *rubyParser) collectNamedVisibility(n *cst.Node, scope *rubyScope) {
	if n.Kind() != "call" || n.Field("receiver") != nil {
		return
	}
	word := fieldText(n, "method")
	var vis extraction.Visibility
	switch word {
	case "private", "protected", "public", "private_class_method", "public_class_method":
		vis = visibility.Modifiers([]string{strings.TrimSuffix(word, "_class_method")}, extraction.VisibilityPublic)
	case "private_constant":
		vis = extraction.VisibilityPrivate
	default:
		return
	}
	for _, arg := range n.Field("arguments").NamedChildren() {
		if name := symbolName(arg); name != "" {
			scope.named[name] = vis
		}
	}
}

// symbolName returns foo for :foo, "foo" and the def foo argument form.
func symbolName(n *cst.Node) string {
	switch n.Kind() {
	case "simple_symbol":
		return strings.TrimPrefix(n.Text(), ":")
	case "string":
		return strings.Trim(n.Text(), `"'`)
	case "method", "singleton_method":
		return fieldText(n, "name")
	}
	return ""
}

// extractCall handles attr_* declarations, visibility calls wrapping a
// def, and a bare visibility keyword the grammar parsed as a call.
func (p *rubyParser) extractCall(n *cst.Node, scope *rubyScope) {
	if n.Field("receiver") != nil {
		return
	}
	word := fieldText(n, "method")
	args := n.Field("arguments")
	switch word {
	case "attr_reader", "attr_writer", "attr_accessor":
		if scope != nil {
			p.extractAttributes(n, word, scope)
		}
	case "private", "protected", "public", "module_function", "private_class_method", "public_class_method":
		if args == nil {
			p.visibilitySection(word, scope)
			return
		}
		// private def foo ... end
		for _, arg := range args.NamedChildren() {
			switch arg.Kind() {
			case "method":
				p.extractMethod(arg, scope, false)
			case "singleton_method":
				p.extractMethod(arg, scope, true)
			}
		}
	}
}

func (p *rubyParser) extractAttributes(n *cst.Node, word string, scope *rubyScope) {
	for _, arg := range n.Field("arguments").NamedChildren() {
		name := symbolName(arg)
		if name == "" {
			continue
		}
		vis := scope.vis
		if v, ok := scope.named[name]; ok {
			vis = v
		}
		it := extraction.Item{
			Kind:       extraction.KindProperty,
			Name:       name,
			Signature:  collapse(firstLine(n)),
			Visibility: vis,
			Metadata: extraction.Metadata{
				Attributes: []string{word},
				OwnerName:  scope.path,
				OwnerKind:  scope.kind,
			},
		}
		it.Doc, it.Metadata.DocSections = rubyDoc(n)
		p.f.add(arg, withSpan(it, n))
		owner := &p.f.items[scope.idx]
		owner.Metadata.Fields = appendUnique(owner.Metadata.Fields, name)
	}
}

// extractContainer handles class and module definitions.
func (p *rubyParser) extractContainer(n *cst.Node, scope *rubyScope, kind extraction.Kind) {
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return
	}
	// class A::B nests under A.
	short := name
	path := name
	if i := strings.LastIndex(name, "::"); i >= 0 {
		short = name[i+2:]
	}
	it := extraction.Item{
		Kind:       kind,
		Name:       short,
		Signature:  rubySignature(p.f.header(n, body), n, body),
		Visibility: extraction.VisibilityPublic,
	}
	if scope != nil {
		path = scope.path + "::" + name
		it.Metadata.OwnerName = scope.path
		it.Metadata.OwnerKind = scope.kind
	} else if i := strings.LastIndex(name, "::"); i >= 0 {
		it.Metadata.OwnerName = name[:i]
		it.Metadata.OwnerKind = extraction.KindModule
	}
	it.Metadata.Path = path
	if sc := n.Field("superclass"); sc != nil {
		it.Metadata.BaseTypes = []string{collapse(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "<"))}
	}
	it.Doc, it.Metadata.DocSections = rubyDoc(n)
	idx := p.f.add(n, it)

	inner := &rubyScope{
		path:  path,
		kind:  kind,
		idx:   idx,
		vis:   extraction.VisibilityPublic,
		named: make(map[string]extraction.Visibility),
	}
	p.extractBody(body, inner)

	// include / extend calls compose modules into the container.
	for _, c := range body.ChildrenOfKind("call") {
		switch fieldText(c, "method") {
		case "include", "extend", "prepend":
			for _, arg := range c.Field("arguments").NamedChildren() {
				p.f.items[idx].Metadata.BaseTypes = appendUnique(p.f.items[idx].Metadata.BaseTypes, arg.Text())
			}
		}
	}
}

func (p *rubyParser) extractMethod(n *cst.Node, scope *rubyScope, singleton bool) {
	name := fieldText(n, "name")
	body := n.Field("body")
	if name == "" || brokenHeader(n, body) {
		return
	}
	static := singleton || (scope != nil && (scope.singleton || scope.function))
	kind := extraction.KindFunction
	if scope != nil {
		kind = extraction.KindMethod
		if name == "initialize" && !static {
			kind = extraction.KindConstructor
		}
	}

	it := extraction.Item{
		Kind:       kind,
		Name:       name,
		Signature:  rubySignature(p.f.header(n, body), n, body),
		Visibility: extraction.VisibilityPublic,
		Metadata: extraction.Metadata{
			Parameters: paramTexts(n.Field("parameters")),
			IsStatic:   static,
		},
	}
	if scope != nil {
		it.Visibility = scope.vis
		if v, ok := scope.named[name]; ok {
			it.Visibility = v
		}
		if name == "initialize" {
			it.Visibility = extraction.VisibilityPrivate
		}
		it.Metadata.OwnerName = scope.path
		it.Metadata.OwnerKind = scope.kind
	}
	it.Doc, it.Metadata.DocSections = rubyDoc(n)
	if it.Doc == "" {
		// private def foo: the comment sits above the call.
		if parent := n.Parent().Parent(); parent.Kind() == "call" {
			it.Doc, it.Metadata.DocSections = rubyDoc(parent)
		}
	}
	if it.Metadata.DocSections != nil && it.Metadata.DocSections.ReturnType != "" {
		it.Metadata.ReturnType = it.Metadata.DocSections.ReturnType
	}
	p.f.add(n, it)

	if scope != nil {
		owner := &p.f.items[scope.idx]
		owner.Metadata.Methods = appendUnique(owner.Metadata.Methods, name)
	}
}

// extractConstant handles CONSTANT = value.
func (p *rubyParser) extractConstant(n *cst.Node, scope *rubyScope) {
	left := n.Field("left")
	if left.Kind() != "constant" {
		return
	}
	name := left.Text()
	it := extraction.Item{
		Kind:       extraction.KindConstant,
		Name:       name,
		Signature:  collapse(firstLine(n)),
		Visibility: extraction.VisibilityPublic,
		Metadata: extraction.Metadata{
			Value: collapse(n.Field("right").Text()),
		},
	}
	if scope != nil {
		if v, ok := scope.named[name]; ok {
			it.Visibility = v
		}
		it.Metadata.OwnerName = scope.path
		it.Metadata.OwnerKind = scope.kind
	}
	it.Doc, it.Metadata.DocSections = rubyDoc(n)
	p.f.add(n, it)
	if scope != nil {
		owner := &p.f.items[scope.idx]
		owner.Metadata.Fields = appendUnique(owner.Metadata.Fields, name)
	}
}

// rubySignature drops the "; end" of one-line definitions and the
// separator before an inline body.
func rubySignature(header string, n, body *cst.Node) string {
	sig := header
	if body == nil {
		sig = collapse(firstLine(n))
		if strings.HasSuffix(sig, " end") || strings.HasSuffix(sig, ";end") {
			sig = sig[:len(sig)-len("end")]
		}
	}
	return trimBodyMarker(sig, ";")
}
