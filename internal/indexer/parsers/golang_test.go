package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// Test Plan for the Go extractor:
// - A documented exported function: doc, header-only signature, one
//   parameter text per name, return type
// - Methods are owned by the receiver's base type and listed on it
// - Struct fields are items, embedded types become base types, trailing
//   comments document fields
// - Interface methods are abstract members; embedded interfaces are bases
// - Type definitions and aliases, grouped const and var declarations
// - A multi-line value is cut from the signature at the "="
// - Compiler directives never leak into docs
// - A broken declaration is skipped while its neighbours are kept

const goSample = `package store

import "errors"

// Server handles requests.
type Server struct {
	Addr    string // listen address
	handler Handler
	*Logger
}

// Start runs the server.
//
//go:noinline
func (s *Server) Start(ctx context.Context) error {
	return nil
}

func (s Server) stop() {}

type Store interface {
	io.Closer
	// Get loads a value.
	Get(key string) ([]byte, error)
}

type ID = string

type Celsius float64

const (
	// Max is the limit.
	Max = 10
	min = 1
)

var ErrClosed = errors.New("closed")
`

func TestGo_DocumentedFunction(t *testing.T) {
	t.Parallel()

	src := "package calc\n\n// Add returns the sum of a and b.\nfunc Add(a int, b int) int {\n\treturn a + b\n}\n"
	items := extract(t, extraction.LangGo, src)
	require.Len(t, items, 1)

	fn := items[0]
	assert.Equal(t, extraction.KindFunction, fn.Kind)
	assert.Equal(t, extraction.VisibilityPublic, fn.Visibility)
	assert.Equal(t, "Add returns the sum of a and b.", fn.Doc)
	assert.Equal(t, "func Add(a int, b int) int", fn.Signature)
	assert.Equal(t, []string{"a int", "b int"}, fn.Metadata.Parameters)
	assert.Equal(t, "int", fn.Metadata.ReturnType)
	assert.Equal(t, 4, fn.StartLine)
	assert.Equal(t, 6, fn.EndLine)
}

func TestGo_GroupedParameters(t *testing.T) {
	t.Parallel()

	src := "package p\n\nfunc join(a, b string, rest ...string) (string, error) { return \"\", nil }\n"
	items := extract(t, extraction.LangGo, src)

	fn := findItem(t, items, extraction.KindFunction, "join")
	assert.Equal(t, []string{"a string", "b string", "rest ...string"}, fn.Metadata.Parameters)
	assert.Equal(t, "(string, error)", fn.Metadata.ReturnType)
	assert.Equal(t, extraction.VisibilityPrivate, fn.Visibility)
}

func TestGo_StructAndMethods(t *testing.T) {
	t.Parallel()

	items := extract(t, extraction.LangGo, goSample)

	srv := findItem(t, items, extraction.KindStruct, "Server")
	assert.Equal(t, "Server handles requests.", srv.Doc)
	assert.Equal(t, "type Server struct", srv.Signature)
	assert.Equal(t, []string{"Addr", "handler"}, srv.Metadata.Fields)
	assert.Equal(t, []string{"Logger"}, srv.Metadata.BaseTypes)
	assert.ElementsMatch(t, []string{"Start", "stop"}, srv.Metadata.Methods)

	addr := findItem(t, items, extraction.KindField, "Addr")
	assert.Equal(t, "listen address", addr.Doc)
	assert.Equal(t, "string", addr.Metadata.ReturnType)
	assert.Equal(t, extraction.VisibilityPublic, addr.Visibility)
	assert.Equal(t, extraction.VisibilityPrivate, findItem(t, items, extraction.KindField, "handler").Visibility)

	start := findItem(t, items, extraction.KindMethod, "Start")
	assert.Equal(t, "Server", start.Metadata.OwnerName)
	assert.Equal(t, extraction.KindStruct, start.Metadata.OwnerKind)
	assert.Equal(t, "Start runs the server.", start.Doc)
	assert.NotContains(t, start.Doc, "go:noinline")
	assert.Equal(t, "func (s *Server) Start(ctx context.Context) error", start.Signature)

	stop := findItem(t, items, extraction.KindMethod, "stop")
	assert.Equal(t, "Server", stop.Metadata.OwnerName)
	assert.Equal(t, extraction.VisibilityPrivate, stop.Visibility)
}

func TestGo_InterfacesAndTypes(t *testing.T) {
	t.Parallel()

	items := extract(t, extraction.LangGo, goSample)

	store := findItem(t, items, extraction.KindInterface, "Store")
	assert.Equal(t, []string{"Get"}, store.Metadata.Methods)
	assert.Equal(t, []string{"io.Closer"}, store.Metadata.BaseTypes)
	assert.Equal(t, "type Store interface", store.Signature)

	get := findItem(t, items, extraction.KindMethod, "Get")
	assert.True(t, get.Metadata.IsAbstract)
	assert.Equal(t, "Store", get.Metadata.OwnerName)
	assert.Equal(t, extraction.KindInterface, get.Metadata.OwnerKind)
	assert.Equal(t, "Get loads a value.", get.Doc)
	assert.Equal(t, []string{"key string"}, get.Metadata.Parameters)

	id := findItem(t, items, extraction.KindTypeAlias, "ID")
	assert.Equal(t, "string", id.Metadata.Value)
	celsius := findItem(t, items, extraction.KindTypeAlias, "Celsius")
	assert.Equal(t, "float64", celsius.Metadata.Value)
}

func TestGo_ConstAndVar(t *testing.T) {
	t.Parallel()

	items := extract(t, extraction.LangGo, goSample)

	maxItem := findItem(t, items, extraction.KindConstant, "Max")
	assert.Equal(t, "10", maxItem.Metadata.Value)
	assert.Equal(t, "Max is the limit.", maxItem.Doc)
	assert.Equal(t, "const Max = 10", maxItem.Signature)

	minItem := findItem(t, items, extraction.KindConstant, "min")
	assert.Equal(t, extraction.VisibilityPrivate, minItem.Visibility)

	errClosed := findItem(t, items, extraction.KindStatic, "ErrClosed")
	assert.Equal(t, `errors.New("closed")`, errClosed.Metadata.Value)
	assert.Equal(t, extraction.VisibilityPublic, errClosed.Visibility)
}

func TestGo_MultiLineValueSignature(t *testing.T) {
	t.Parallel()

	src := `package p

var defaults = options{
	Limit: 10,
}

var (
	timeout int = 5
	table       = map[string]int{
		"a": 1,
	}
)
`
	items := extract(t, extraction.LangGo, src)

	defaults := findItem(t, items, extraction.KindStatic, "defaults")
	assert.Equal(t, "var defaults", defaults.Signature)
	assert.NotContains(t, defaults.Signature, "{")
	assert.Equal(t, 3, defaults.StartLine)
	assert.Equal(t, 5, defaults.EndLine)

	timeout := findItem(t, items, extraction.KindStatic, "timeout")
	assert.Equal(t, "var timeout int = 5", timeout.Signature)
	assert.Equal(t, "int", timeout.Metadata.ReturnType)

	table := findItem(t, items, extraction.KindStatic, "table")
	assert.Equal(t, "var table", table.Signature)
}

func TestGo_BrokenDeclarationIsSkipped(t *testing.T) {
	t.Parallel()

	src := "package p\n\nfunc Good() {}\n\nfunc Bad( {\n}\n\nfunc AlsoGood() int { return 1 }\n"
	items, err := newTestExtractor().Extract([]byte(src), extraction.LangGo)
	require.NoError(t, err)

	names := namesOf(items, extraction.KindFunction)
	assert.Contains(t, names, "Good")
	assert.Contains(t, names, "AlsoGood")
	assert.NotContains(t, names, "Bad")
}
