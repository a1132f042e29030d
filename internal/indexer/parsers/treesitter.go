package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/docstyle"
)

// header returns the signature of decl: its text from the first token that
// is not a decorator or comment up to the start of body, or to the end of
// decl when there is no body.
func (f *file) header(decl, body *cst.Node) string {
	if decl == nil {
		return ""
	}
	return f.headerFrom(headerStart(decl), decl, body)
}

// headerFrom is header with an explicit first node, for grammars that keep
// annotations inside a modifier list.
func (f *file) headerFrom(from, decl, body *cst.Node) string {
	if decl == nil {
		return ""
	}
	if from == nil {
		from = decl
	}
	start := from.StartByte()
	end := decl.EndByte()
	if body != nil && body.StartByte() >= start && body.StartByte() <= end {
		end = body.StartByte()
	}
	return f.signatureText(string(f.src[start:end]))
}

// headerStart returns the first child of n that is not a decorator or
// comment, where a signature begins.
func headerStart(n *cst.Node) *cst.Node {
	return firstChildExcept(n, "decorator", "comment", "line_comment", "block_comment")
}

func (f *file) signatureText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	truncated := false
	if limit := f.opts.SignatureMaxLines; limit > 0 && len(out) > limit {
		out = out[:limit]
		truncated = true
	}
	sig := strings.Join(out, "\n")
	if truncated {
		sig += " ..."
	}
	return sig
}

// trimBodyMarker strips a trailing body opener (such as ":" or "{") that the
// grammar places outside the body node.
func trimBodyMarker(sig string, markers ...string) string {
	sig = strings.TrimRight(sig, " \t")
	for _, m := range markers {
		if strings.HasSuffix(sig, m) {
			return strings.TrimRight(strings.TrimSuffix(sig, m), " \t")
		}
	}
	return sig
}

// firstLine returns the first line of a node's text with trailing
// terminators removed.
func firstLine(n *cst.Node) string {
	text := n.Text()
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimRight(strings.TrimSpace(text), ";,")
}

// commentFilter decides whether a sibling comment belongs to a doc block.
type commentFilter struct {
	kinds  []string          // comment node kinds
	accept func(string) bool // nil accepts every comment
	skip   []string          // kinds allowed between the comments and the node
}

// precedingComments collects the contiguous comment block directly above n,
// walking siblings backward and returning the texts in source order.
func precedingComments(n *cst.Node, cf commentFilter) []string {
	var collected []string
	cur := n
	for prev := n.Prev(); prev != nil; prev = prev.Prev() {
		if prev.EndLine() < cur.StartLine()-1 {
			break
		}
		if hasKind(prev, cf.skip) {
			cur = prev
			continue
		}
		if !hasKind(prev, cf.kinds) {
			break
		}
		text := prev.Text()
		if cf.accept != nil && !cf.accept(text) {
			break
		}
		// A comment trailing the previous statement documents that one.
		if before := prev.Prev(); before != nil && !hasKind(before, cf.kinds) && before.EndLine() == prev.StartLine() {
			break
		}
		collected = append(collected, text)
		cur = prev
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected
}

func hasKind(n *cst.Node, kinds []string) bool {
	k := n.Kind()
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// paramTexts returns the normalized text of each named child of a
// parameter list, skipping comments and the listed names.
func paramTexts(params *cst.Node, skipNames ...string) []string {
	var out []string
	for _, p := range params.NamedChildren() {
		if strings.Contains(p.Kind(), "comment") {
			continue
		}
		text := collapse(p.Text())
		skipped := false
		for _, s := range skipNames {
			if text == s || strings.HasPrefix(text, s+":") || strings.HasPrefix(text, "&"+s) || strings.HasPrefix(text, "&mut "+s) {
				skipped = true
				break
			}
		}
		if !skipped && text != "" {
			out = append(out, text)
		}
	}
	return out
}

// childTexts returns the normalized text of each named, non-comment child.
func childTexts(n *cst.Node) []string {
	var out []string
	for _, c := range n.NamedChildren() {
		if strings.Contains(c.Kind(), "comment") {
			continue
		}
		out = append(out, collapse(c.Text()))
	}
	return out
}

// collapse folds all runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fieldText returns the text of a named field, or "".
func fieldText(n *cst.Node, field string) string {
	return n.Field(field).Text()
}

// typeText returns a type annotation without its leading colon or arrow.
func typeText(n *cst.Node) string {
	t := strings.TrimSpace(n.Text())
	t = strings.TrimPrefix(t, ":")
	t = strings.TrimPrefix(t, "->")
	return collapse(t)
}

// appendUnique appends values not already present.
func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// isUpperIdent reports whether name starts with an upper-case ASCII letter.
func isUpperIdent(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

// isConstantName reports whether name is SCREAMING_SNAKE_CASE.
func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return hasLetter
}

// commentDoc strips comment markers from each block and joins them.
func commentDoc(comments []string) string {
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		if text := docstyle.StripComment(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// brokenHeader reports whether the part of decl outside body contains an
// error or a node the parser inserted to recover.
func brokenHeader(decl, body *cst.Node) bool {
	broken := false
	decl.Walk(func(n *cst.Node) bool {
		if broken || (body != nil && n.Same(body)) {
			return false
		}
		if n.IsError() || n.IsMissing() {
			broken = true
			return false
		}
		return n.HasError() || n.Same(decl)
	})
	return broken
}

// statementsOf returns the named children of a block, descending into
// ERROR nodes so declarations the parser could not attach are still seen.
func statementsOf(block *cst.Node) []*cst.Node {
	var out []*cst.Node
	for _, c := range block.NamedChildren() {
		if c.IsError() {
			out = append(out, statementsOf(c)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// firstChildExcept returns the first child whose kind is not in kinds.
func firstChildExcept(n *cst.Node, kinds ...string) *cst.Node {
	for _, c := range n.Children() {
		if !hasKind(c, kinds) {
			return c
		}
	}
	return n
}

// anchor makes the item at idx findable from a second node, such as the
// function value of a variable declaration.
func (f *file) anchor(n *cst.Node, idx int) {
	if n != nil {
		f.anchors[n.StartByte()] = idx
	}
}
