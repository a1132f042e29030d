package cst

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Point is a source position with a 1-based line and a 0-based column.
type Point struct {
	Line   int
	Column int
}

// Node is a syntax tree node bound to its source text.
// A nil *Node stands for an absent node; every method is safe to call on it.
type Node struct {
	n   *sitter.Node
	src []byte
}

func wrap(n *sitter.Node, src []byte) *Node {
	if n == nil {
		return nil
	}
	return &Node{n: n, src: src}
}

// Kind returns the grammar's node type name.
func (n *Node) Kind() string {
	if n == nil {
		return ""
	}
	return n.n.Kind()
}

// Text returns the node's source text.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return string(n.src[n.n.StartByte():n.n.EndByte()])
}

// StartByte returns the offset of the node's first byte.
func (n *Node) StartByte() uint {
	if n == nil {
		return 0
	}
	return n.n.StartByte()
}

// EndByte returns the offset just past the node's last byte.
func (n *Node) EndByte() uint {
	if n == nil {
		return 0
	}
	return n.n.EndByte()
}

// StartPos returns the node's start position.
func (n *Node) StartPos() Point {
	if n == nil {
		return Point{}
	}
	p := n.n.StartPosition()
	return Point{Line: int(p.Row) + 1, Column: int(p.Column)}
}

// EndPos returns the node's end position.
func (n *Node) EndPos() Point {
	if n == nil {
		return Point{}
	}
	p := n.n.EndPosition()
	return Point{Line: int(p.Row) + 1, Column: int(p.Column)}
}

// StartLine returns the 1-based line the node starts on.
func (n *Node) StartLine() int {
	return n.StartPos().Line
}

// EndLine returns the 1-based line holding the node's last character.
// A node whose span ends on a trailing newline reports the line before it.
func (n *Node) EndLine() int {
	if n == nil {
		return 0
	}
	start := n.n.StartPosition()
	end := n.n.EndPosition()
	if end.Column == 0 && end.Row > start.Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

// ChildCount returns the number of children, named and anonymous.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return int(n.n.ChildCount())
}

// Child returns the i-th child.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= n.ChildCount() {
		return nil
	}
	return wrap(n.n.Child(uint(i)), n.src)
}

// Children returns all children in order.
func (n *Node) Children() []*Node {
	count := n.ChildCount()
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children in order.
func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	count := int(n.n.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if c := wrap(n.n.NamedChild(uint(i)), n.src); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NamedChild returns the i-th named child.
func (n *Node) NamedChild(i int) *Node {
	if n == nil || i < 0 || i >= int(n.n.NamedChildCount()) {
		return nil
	}
	return wrap(n.n.NamedChild(uint(i)), n.src)
}

// Field returns the child stored in the named grammar slot.
func (n *Node) Field(name string) *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.ChildByFieldName(name), n.src)
}

// Parent returns the enclosing node.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.Parent(), n.src)
}

// Prev returns the previous sibling.
func (n *Node) Prev() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.PrevSibling(), n.src)
}

// Next returns the next sibling.
func (n *Node) Next() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.NextSibling(), n.src)
}

// PrevNamed returns the previous named sibling.
func (n *Node) PrevNamed() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.PrevNamedSibling(), n.src)
}

// NextNamed returns the next named sibling.
func (n *Node) NextNamed() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.NextNamedSibling(), n.src)
}

// IsNamed reports whether the node is a named grammar production.
func (n *Node) IsNamed() bool {
	return n != nil && n.n.IsNamed()
}

// IsError reports whether the node is an ERROR node.
func (n *Node) IsError() bool {
	return n != nil && n.n.IsError()
}

// IsMissing reports whether the parser inserted the node to recover.
func (n *Node) IsMissing() bool {
	return n != nil && n.n.IsMissing()
}

// HasError reports whether the node or a descendant is an error.
func (n *Node) HasError() bool {
	return n != nil && n.n.HasError()
}

// Same reports whether both values refer to the same span and kind.
func (n *Node) Same(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.StartByte() == o.StartByte() && n.EndByte() == o.EndByte() && n.Kind() == o.Kind()
}

// Walk visits n and its descendants depth-first. Returning false from visit
// skips the children of the visited node.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(visit)
	}
}

// ChildOfKind returns the first child whose kind is one of kinds.
func (n *Node) ChildOfKind(kinds ...string) *Node {
	for _, c := range n.Children() {
		for _, k := range kinds {
			if c.Kind() == k {
				return c
			}
		}
	}
	return nil
}

// ChildrenOfKind returns every child whose kind is one of kinds.
func (n *Node) ChildrenOfKind(kinds ...string) []*Node {
	var out []*Node
	for _, c := range n.Children() {
		for _, k := range kinds {
			if c.Kind() == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// HasChild reports whether any child, named or anonymous, has the given kind.
func (n *Node) HasChild(kind string) bool {
	return n.ChildOfKind(kind) != nil
}

// Ancestor returns the nearest enclosing node whose kind is one of kinds,
// stopping early when a node of a stop kind is reached.
func (n *Node) Ancestor(kinds []string, stop ...string) *Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		k := p.Kind()
		for _, want := range kinds {
			if k == want {
				return p
			}
		}
		for _, s := range stop {
			if k == s {
				return nil
			}
		}
	}
	return nil
}

// Descendants returns every descendant whose kind is one of kinds.
func (n *Node) Descendants(kinds ...string) []*Node {
	var out []*Node
	n.Walk(func(d *Node) bool {
		if d == n {
			return true
		}
		for _, k := range kinds {
			if d.Kind() == k {
				out = append(out, d)
				break
			}
		}
		return true
	})
	return out
}

// TextBefore returns the source from the node's start up to, not including,
// the start of stop. If stop is nil the whole node text is returned.
func (n *Node) TextBefore(stop *Node) string {
	if n == nil {
		return ""
	}
	if stop == nil || stop.StartByte() < n.StartByte() || stop.StartByte() > n.EndByte() {
		return n.Text()
	}
	return strings.TrimRight(string(n.src[n.StartByte():stop.StartByte()]), " \t\r\n")
}

// Source returns the full text the node's tree was parsed from.
func (n *Node) Source() []byte {
	if n == nil {
		return nil
	}
	return n.src
}
