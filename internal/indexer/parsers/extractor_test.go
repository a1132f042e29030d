package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// Test Plan for Extractor:
// - Every language tag has an extractor
// - Unknown tags are rejected, invalid UTF-8 is a parse error
// - Two calls over the same source give identical output
// - Signatures of brace languages never include the opening brace
// - Snippets are truncated with the marker past the configured limit
// - Empty input yields an empty, non-nil slice

func TestExtractor_Languages(t *testing.T) {
	t.Parallel()

	x := newTestExtractor()
	assert.ElementsMatch(t, extraction.AllLanguages, x.Languages())
}

func TestExtractor_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	_, err := newTestExtractor().Extract([]byte("x"), extraction.Language("cobol"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestExtractor_InvalidEncoding(t *testing.T) {
	t.Parallel()

	_, err := newTestExtractor().Extract([]byte{0xff, 0xfe, 'f', 'n'}, extraction.LangRust)
	var perr *extraction.ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, extraction.ErrParse)
}

func TestExtractor_EmptySource(t *testing.T) {
	t.Parallel()

	for _, lang := range extraction.AllLanguages {
		items, err := newTestExtractor().Extract(nil, lang)
		require.NoError(t, err, lang)
		require.NotNil(t, items, lang)
		if lang == extraction.LangVue || lang == extraction.LangSvelte {
			// A component file is a component even when empty.
			require.Len(t, items, 1, lang)
			assert.Equal(t, extraction.KindComponent, items[0].Kind)
			continue
		}
		assert.Empty(t, items, lang)
	}
}

func TestExtractor_Idempotent(t *testing.T) {
	t.Parallel()

	samples := map[extraction.Language]string{
		extraction.LangRust:       rustSample,
		extraction.LangPython:     pythonSample,
		extraction.LangGo:         goSample,
		extraction.LangC:          cSample,
		extraction.LangJava:       javaSample,
		extraction.LangPHP:        phpSample,
		extraction.LangRuby:       rubySample,
		extraction.LangTypeScript: tsSample,
		extraction.LangCSS:        cssSample,
	}
	x := newTestExtractor()
	for lang, src := range samples {
		first, err := x.Extract([]byte(src), lang)
		require.NoError(t, err, lang)
		second, err := x.Extract([]byte(src), lang)
		require.NoError(t, err, lang)
		assert.Equal(t, first, second, lang)
	}
}

func TestExtractor_SignaturesExcludeBody(t *testing.T) {
	t.Parallel()

	samples := map[extraction.Language]string{
		extraction.LangRust:       rustSample,
		extraction.LangGo:         goSample,
		extraction.LangC:          cSample,
		extraction.LangJava:       javaSample,
		extraction.LangPHP:        phpSample,
		extraction.LangTypeScript: tsSample,
	}
	for lang, src := range samples {
		items := extract(t, lang, src)
		for _, it := range items {
			if !it.Kind.IsCallable() {
				continue
			}
			assert.False(t, strings.HasSuffix(it.Signature, "{"), "%s %s signature %q", lang, it.Name, it.Signature)
			assert.NotContains(t, it.Signature, "\n{", "%s %s", lang, it.Name)
		}
	}
}

func TestExtractor_SnippetTruncation(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("fn long() {\n")
	for i := 0; i < 20; i++ {
		b.WriteString("    step();\n")
	}
	b.WriteString("}\n")

	x := NewExtractor(testRegistry, Options{SnippetMaxLines: 5, IncludeSource: true})
	items, err := x.Extract([]byte(b.String()), extraction.LangRust)
	require.NoError(t, err)
	require.Len(t, items, 1)

	src := items[0].Source
	assert.True(t, strings.HasSuffix(src, extraction.TruncationMarker))
	assert.Equal(t, 6, strings.Count(src, "\n")+1, "five lines plus the marker")
	assert.Equal(t, 22, items[0].EndLine)
}

func TestExtractor_NoSourceWhenDisabled(t *testing.T) {
	t.Parallel()

	x := NewExtractor(testRegistry, Options{IncludeSource: false})
	items, err := x.Extract([]byte("fn a() {}\n"), extraction.LangRust)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Source)
}

func TestComponentName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Card", componentName("src/components/Card.vue"))
	assert.Equal(t, "", componentName(""))
}
