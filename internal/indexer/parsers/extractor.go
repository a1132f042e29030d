package parsers

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/symdex/internal/indexer/cst"
	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// Options bounds how much text is copied into each item.
type Options struct {
	SnippetMaxLines   int  // lines of source kept per item before truncation
	SignatureMaxLines int  // lines of header kept in a signature
	IncludeSource     bool // attach source snippets at all
	MaxDepth          int  // key nesting depth for YAML and JSON documents
}

// DefaultOptions returns the limits used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		SnippetMaxLines:   60,
		SignatureMaxLines: 8,
		IncludeSource:     true,
		MaxDepth:          4,
	}
}

// extractFunc fills f.items from f.src.
type extractFunc func(x *Extractor, f *file) error

// Extractor turns source text into items. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	registry *cst.Registry
	opts     Options
	table    map[extraction.Language]extractFunc
}

// NewExtractor creates an extractor over a shared grammar registry.
func NewExtractor(registry *cst.Registry, opts Options) *Extractor {
	if opts.SnippetMaxLines <= 0 {
		opts.SnippetMaxLines = DefaultOptions().SnippetMaxLines
	}
	if opts.SignatureMaxLines <= 0 {
		opts.SignatureMaxLines = DefaultOptions().SignatureMaxLines
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	return &Extractor{
		registry: registry,
		opts:     opts,
		table:    languageTable(),
	}
}

// languageTable binds every language tag to exactly one extractor.
func languageTable() map[extraction.Language]extractFunc {
	return map[extraction.Language]extractFunc{
		extraction.LangRust:       extractRust,
		extraction.LangPython:     extractPython,
		extraction.LangTypeScript: extractTypeScript,
		extraction.LangTSX:        extractTypeScript,
		extraction.LangJavaScript: extractTypeScript,
		extraction.LangGo:         extractGo,
		extraction.LangC:          extractC,
		extraction.LangCpp:        extractC,
		extraction.LangJava:       extractJava,
		extraction.LangPHP:        extractPHP,
		extraction.LangRuby:       extractRuby,
		extraction.LangMarkdown:   extractMarkdown,
		extraction.LangRST:        extractRST,
		extraction.LangPlainText:  extractPlainText,
		extraction.LangTOML:       extractTOML,
		extraction.LangYAML:       extractYAML,
		extraction.LangJSON:       extractJSON,
		extraction.LangCSS:        extractCSS,
		extraction.LangHTML:       extractHTML,
		extraction.LangVue:        extractVue,
		extraction.LangSvelte:     extractSvelte,
	}
}

// Languages returns the tags this extractor can handle.
func (x *Extractor) Languages() []extraction.Language {
	out := make([]extraction.Language, 0, len(x.table))
	for _, l := range extraction.AllLanguages {
		if _, ok := x.table[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Extract returns the items found in source. The only error is a
// *extraction.ParseError when no tree could be built at all.
func (x *Extractor) Extract(source []byte, lang extraction.Language) ([]extraction.Item, error) {
	return x.ExtractFile("", source, lang)
}

// ExtractFile is Extract with the file path available for naming
// single-file components.
func (x *Extractor) ExtractFile(path string, source []byte, lang extraction.Language) ([]extraction.Item, error) {
	if lang == extraction.LangPlainText {
		lang = SniffPlainText(source)
	}
	fn, ok := x.table[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	if !utf8.Valid(source) {
		return nil, extraction.NewParseError(lang, cst.ErrInvalidEncoding)
	}

	f := newFile(lang, source, x.opts)
	f.name = componentName(path)
	if err := fn(x, f); err != nil {
		return nil, err
	}
	return f.finish(), nil
}

// extractEmbedded runs another language's extractor over a block of the
// current file and shifts the results to the block's position.
func (x *Extractor) extractEmbedded(lang extraction.Language, block string, firstLine int) []extraction.Item {
	fn, ok := x.table[lang]
	if !ok || strings.TrimSpace(block) == "" {
		return nil
	}
	f := newFile(lang, []byte(block), x.opts)
	if err := fn(x, f); err != nil {
		return nil
	}
	items := f.finish()
	for i := range items {
		items[i].StartLine += firstLine - 1
		items[i].EndLine += firstLine - 1
	}
	return items
}

// parse builds a tree for f, reporting failures as parse errors.
func (x *Extractor) parse(f *file, g cst.Grammar) (*cst.Tree, error) {
	tree, err := x.registry.Parse(g, f.src)
	if err != nil {
		return nil, extraction.NewParseError(f.lang, err)
	}
	return tree, nil
}

func componentName(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
