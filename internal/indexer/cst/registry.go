// Package cst wraps the tree-sitter binding behind the small node contract the
// extractors are written against.
package cst

import (
	"errors"
	"fmt"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Grammar identifies one compiled tree-sitter grammar.
type Grammar string

const (
	GrammarRust       Grammar = "rust"
	GrammarPython     Grammar = "python"
	GrammarTypeScript Grammar = "typescript"
	GrammarTSX        Grammar = "tsx"
	GrammarGo         Grammar = "go"
	GrammarC          Grammar = "c"
	GrammarJava       Grammar = "java"
	GrammarPHP        Grammar = "php"
	GrammarRuby       Grammar = "ruby"
)

var (
	// ErrUnknownGrammar is returned for a grammar the registry was not built with.
	ErrUnknownGrammar = errors.New("unknown grammar")

	// ErrInvalidEncoding is returned for source that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("source is not valid UTF-8")
)

// Registry holds the compiled grammars. It is built once and never mutated,
// so a single instance can be shared by concurrent extractions.
type Registry struct {
	languages map[Grammar]*sitter.Language
}

// NewRegistry loads every grammar the engine supports.
func NewRegistry() *Registry {
	return &Registry{
		languages: map[Grammar]*sitter.Language{
			GrammarRust:       sitter.NewLanguage(rust.Language()),
			GrammarPython:     sitter.NewLanguage(python.Language()),
			GrammarTypeScript: sitter.NewLanguage(typescript.LanguageTypescript()),
			GrammarTSX:        sitter.NewLanguage(typescript.LanguageTSX()),
			GrammarGo:         sitter.NewLanguage(golang.Language()),
			GrammarC:          sitter.NewLanguage(c.Language()),
			GrammarJava:       sitter.NewLanguage(java.Language()),
			GrammarPHP:        sitter.NewLanguage(php.LanguagePHP()),
			GrammarRuby:       sitter.NewLanguage(ruby.Language()),
		},
	}
}

// Grammars returns the grammars held by the registry.
func (r *Registry) Grammars() []Grammar {
	out := make([]Grammar, 0, len(r.languages))
	for g := range r.languages {
		out = append(out, g)
	}
	return out
}

// Parse builds a syntax tree for source. The caller must Close the tree.
// Syntax errors do not fail the parse; they surface as ERROR nodes.
func (r *Registry) Parse(g Grammar, source []byte) (*Tree, error) {
	lang, ok := r.languages[g]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGrammar, g)
	}
	if !utf8.Valid(source) {
		return nil, ErrInvalidEncoding
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set %s grammar: %w", g, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to build %s syntax tree", g)
	}
	return &Tree{tree: tree, source: source}, nil
}

// Tree is a parsed file together with the source it was built from.
type Tree struct {
	tree   *sitter.Tree
	source []byte
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	return wrap(t.tree.RootNode(), t.source)
}

// Source returns the text the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.source
}

// Close releases the underlying tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}
