package parsers

import (
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// mergeSpec configures one language's merge pass.
type mergeSpec struct {
	// key returns the identity under which items collapse. Items for which
	// ok is false are never merged.
	key func(it *extraction.Item) (key string, ok bool)
	// annotated reports whether a signature carries an explicit type
	// annotation. Nil uses hasTypeAnnotation.
	annotated func(sig string) bool
}

// mergeKey builds the usual composite identity from kind, name and owner.
func mergeKey(it *extraction.Item, extra ...string) string {
	parts := append([]string{string(it.Kind), it.Name, it.Metadata.OwnerName}, extra...)
	return strings.Join(parts, "\x00")
}

// merge collapses items sharing a key into the first of them. The retained
// item keeps its position; later duplicates are removed.
func (f *file) merge(spec mergeSpec) {
	annotated := spec.annotated
	if annotated == nil {
		annotated = hasTypeAnnotation
	}

	first := make(map[string]int)
	out := f.items[:0:0]
	for i := range f.items {
		it := f.items[i]
		key, ok := spec.key(&it)
		if !ok {
			out = append(out, it)
			continue
		}
		if idx, seen := first[key]; seen {
			mergeInto(&out[idx], &it, annotated)
			continue
		}
		first[key] = len(out)
		out = append(out, it)
	}
	if len(out) == len(f.items) {
		return
	}

	for i := range out {
		if f.opts.IncludeSource {
			out[i].Source = f.snippet(out[i].StartLine, out[i].EndLine)
		}
	}
	f.items = out
	// Anchors point into the old slice.
	f.anchors = make(map[uint]int)
}

func mergeInto(dst, src *extraction.Item, annotated func(string) bool) {
	if src.Signature != "" && (dst.Signature == "" || (!annotated(dst.Signature) && annotated(src.Signature))) {
		dst.Signature = src.Signature
	}
	if src.StartLine < dst.StartLine {
		dst.StartLine = src.StartLine
	}
	if src.EndLine > dst.EndLine {
		dst.EndLine = src.EndLine
	}
	if dst.Doc == "" {
		dst.Doc = src.Doc
	}
	if dst.Visibility == "" {
		dst.Visibility = src.Visibility
	}

	d, s := &dst.Metadata, &src.Metadata
	d.IsAsync = d.IsAsync || s.IsAsync
	d.IsUnsafe = d.IsUnsafe || s.IsUnsafe
	d.IsStatic = d.IsStatic || s.IsStatic
	d.IsAbstract = d.IsAbstract || s.IsAbstract
	d.IsGenerator = d.IsGenerator || s.IsGenerator
	d.IsHook = d.IsHook || s.IsHook
	d.IsComponent = d.IsComponent || s.IsComponent
	d.IsDefaultExport = d.IsDefaultExport || s.IsDefaultExport

	if d.ReturnType == "" {
		d.ReturnType = s.ReturnType
	}
	if len(d.Parameters) == 0 {
		d.Parameters = s.Parameters
	}
	if d.TraitName == "" {
		d.TraitName = s.TraitName
	}
	if d.Value == "" {
		d.Value = s.Value
	}
	if d.DocSections.IsEmpty() {
		d.DocSections = s.DocSections
	}

	d.Generics = appendUnique(d.Generics, s.Generics...)
	d.Attributes = appendUnique(d.Attributes, s.Attributes...)
	d.Variants = appendUnique(d.Variants, s.Variants...)
	d.Fields = appendUnique(d.Fields, s.Fields...)
	d.Methods = appendUnique(d.Methods, s.Methods...)
	d.BaseTypes = appendUnique(d.BaseTypes, s.BaseTypes...)
	d.Hooks = appendUnique(d.Hooks, s.Hooks...)
	d.JSXElements = appendUnique(d.JSXElements, s.JSXElements...)
}

// hasTypeAnnotation reports whether a signature names a parameter or
// return type with ":" or "->".
func hasTypeAnnotation(sig string) bool {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return strings.Contains(sig, ":")
	}
	rest := sig[open:]
	return strings.Contains(rest, ":") || strings.Contains(rest, "->")
}
