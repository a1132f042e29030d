package parsers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// The registry is immutable and shared by every test in the package.
var testRegistry = cst.NewRegistry()

func newTestExtractor() *Extractor {
	return NewExtractor(testRegistry, DefaultOptions())
}

// extract runs one extraction and checks the span invariants every item
// must satisfy.
func extract(t *testing.T, lang extraction.Language, src string) []extraction.Item {
	t.Helper()
	items, err := newTestExtractor().Extract([]byte(src), lang)
	require.NoError(t, err)
	requireValidItems(t, items, src)
	return items
}

func requireValidItems(t *testing.T, items []extraction.Item, src string) {
	t.Helper()
	f := newFile("", []byte(src), DefaultOptions())
	last := f.lineCount()
	if last < 1 {
		last = 1
	}
	for i := range items {
		it := &items[i]
		require.NoError(t, it.Validate())
		require.LessOrEqual(t, it.EndLine, last, "%s %q ends past the file", it.Kind, it.Name)
	}
}

// findItem returns the first item of a kind and name, failing the test
// when there is none.
func findItem(t *testing.T, items []extraction.Item, kind extraction.Kind, name string) extraction.Item {
	t.Helper()
	for _, it := range items {
		if it.Kind == kind && it.Name == name {
			return it
		}
	}
	require.Failf(t, "item not found", "no %s named %q in %v", kind, name, summarize(items))
	return extraction.Item{}
}

func countItems(items []extraction.Item, kind extraction.Kind, name string) int {
	n := 0
	for _, it := range items {
		if it.Kind == kind && it.Name == name {
			n++
		}
	}
	return n
}

func namesOf(items []extraction.Item, kind extraction.Kind) []string {
	var out []string
	for _, it := range items {
		if it.Kind == kind {
			out = append(out, it.Name)
		}
	}
	return out
}

func summarize(items []extraction.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, string(it.Kind)+":"+it.Name)
	}
	return out
}

// requireUniqueKeys fails when two items share a kind, name and owner.
func requireUniqueKeys(t *testing.T, items []extraction.Item) {
	t.Helper()
	seen := make(map[string]int, len(items))
	for _, it := range items {
		key := string(it.Kind) + " " + it.Metadata.OwnerName + "." + it.Name
		seen[key]++
		require.Equal(t, 1, seen[key], "%s emitted more than once in %v", key, summarize(items))
	}
}
