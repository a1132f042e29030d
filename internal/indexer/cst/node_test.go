package cst

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for cst:
// - Registry parses every grammar it was built with
// - Unknown grammars and invalid UTF-8 are rejected before parsing
// - Node navigation: fields, children, siblings, parent, ancestors
// - Line numbers are 1-based and EndLine never precedes StartLine
// - Malformed input still yields a tree with error nodes
// - A nil *Node is safe to call every accessor on
// - The registry is safe for concurrent Parse calls

func TestRegistry_ParsesEveryGrammar(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	sources := map[Grammar]string{
		GrammarRust:       "fn main() {}",
		GrammarPython:     "def f():\n    pass\n",
		GrammarTypeScript: "function f(): void {}",
		GrammarTSX:        "const A = () => <div/>;",
		GrammarGo:         "package p\nfunc F() {}\n",
		GrammarC:          "int main(void) { return 0; }",
		GrammarJava:       "class A {}",
		GrammarPHP:        "<?php function f() {}",
		GrammarRuby:       "def f; end",
	}
	assert.Len(t, reg.Grammars(), len(sources))

	for g, src := range sources {
		tree, err := reg.Parse(g, []byte(src))
		require.NoError(t, err, g)
		root := tree.Root()
		require.NotNil(t, root, g)
		assert.False(t, root.HasError(), "grammar %s: %s", g, src)
		tree.Close()
	}
}

func TestRegistry_RejectsBadInput(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	_, err := reg.Parse(Grammar("cobol"), []byte("x"))
	assert.True(t, errors.Is(err, ErrUnknownGrammar))

	_, err = reg.Parse(GrammarRust, []byte{0xff, 0xfe, 'f', 'n'})
	assert.True(t, errors.Is(err, ErrInvalidEncoding))
}

func TestNode_Navigation(t *testing.T) {
	t.Parallel()

	src := "package p\n\n// Add sums.\nfunc Add(a, b int) int {\n\treturn a + b\n}\n"
	tree, err := NewRegistry().Parse(GrammarGo, []byte(src))
	require.NoError(t, err)
	defer tree.Close()

	root := tree.Root()
	fn := root.ChildOfKind("function_declaration")
	require.NotNil(t, fn)

	assert.Equal(t, "Add", fn.Field("name").Text())
	assert.Equal(t, 4, fn.StartLine())
	assert.Equal(t, 6, fn.EndLine())
	assert.Equal(t, Point{Line: 4, Column: 0}, fn.StartPos())

	comment := fn.Prev()
	require.NotNil(t, comment)
	assert.Equal(t, "comment", comment.Kind())
	assert.Equal(t, "// Add sums.", comment.Text())
	assert.True(t, comment.Next().Same(fn))

	body := fn.Field("body")
	assert.Equal(t, "func Add(a, b int) int", fn.TextBefore(body))

	ret := body.Descendants("return_statement")
	require.Len(t, ret, 1)
	assert.True(t, ret[0].Ancestor([]string{"function_declaration"}).Same(fn))
	assert.Nil(t, ret[0].Ancestor([]string{"method_declaration"}, "function_declaration"))
	assert.True(t, fn.Parent().Same(root))
	assert.Equal(t, []byte(src), fn.Source())
}

func TestNode_MalformedInputStillParses(t *testing.T) {
	t.Parallel()

	tree, err := NewRegistry().Parse(GrammarRust, []byte("fn ok() {}\nstruct {\nfn also_ok() {}\n"))
	require.NoError(t, err)
	defer tree.Close()

	root := tree.Root()
	assert.True(t, root.HasError())
	assert.NotEmpty(t, root.Descendants("function_item"))
}

func TestNode_NilSafety(t *testing.T) {
	t.Parallel()

	var n *Node
	assert.Equal(t, "", n.Kind())
	assert.Equal(t, "", n.Text())
	assert.Equal(t, 0, n.StartLine())
	assert.Equal(t, 0, n.EndLine())
	assert.Nil(t, n.Field("name"))
	assert.Nil(t, n.Parent())
	assert.Nil(t, n.Prev())
	assert.Nil(t, n.Next())
	assert.Empty(t, n.Children())
	assert.Empty(t, n.NamedChildren())
	assert.False(t, n.IsError())
	assert.False(t, n.HasChild("x"))
	assert.True(t, n.Same(nil))
	n.Walk(func(*Node) bool {
		t.Fatal("walk visited a nil node")
		return true
	})
}

func TestRegistry_ConcurrentParse(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := reg.Parse(GrammarPython, []byte("class A:\n    def m(self):\n        pass\n"))
			if !assert.NoError(t, err) {
				return
			}
			defer tree.Close()
			assert.Len(t, tree.Root().Descendants("function_definition"), 1)
		}()
	}
	wg.Wait()
}
