package docstyle

import (
	"testing"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for docstyle:
// - Comment marker stripping for line and block comments
// - Rustdoc headers map to errors/panics/safety/examples/arguments
// - JSDoc typed params, returns, throws, examples and deprecated
// - Javadoc and Doxygen params (including \param and @param[in])
// - PHPDoc typed tags with $-prefixed names and @property passthrough
// - YARD bracketed types in both orders
// - Google, Sphinx and NumPy docstrings, plus style detection
// - GoDoc deprecated paragraphs and Svelte @component blocks
// - Unknown tags never fail and are kept as raw passthrough tags
// - Empty input yields nil sections

func TestStripComments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Adds two numbers.\n\nMore.", StripLineComments("/// Adds two numbers.\n///\n/// More.", "///", "//"))
	assert.Equal(t, "Line one\nLine two", StripBlockComment("/**\n * Line one\n * Line two\n */"))
	assert.Equal(t, "single", StripBlockComment("/* single */"))
	assert.Equal(t, "hash comment", StripComment("# hash comment"))
	assert.Equal(t, "Summary.\n\nArgs:\n    x: y", Dedent("Summary.\n\n    Args:\n        x: y\n    "))
}

func TestRustdoc(t *testing.T) {
	t.Parallel()

	doc := "Parses the input.\n\n# Arguments\n\n* `input` - the raw text\n* `strict` - fail on warnings\n\n# Errors\n\nReturns an error if the input is empty.\n\n# Panics\n\nPanics on invalid UTF-8.\n\n# Safety\n\nCaller must hold the lock.\n\n# Examples\n\n```\nlet x = parse(\"a\");\n# let y = 1;\n```\n\n# Custom\n\nanything"
	d := Rustdoc(doc)
	require.NotNil(t, d)

	assert.Equal(t, "Parses the input.", d.Summary)
	assert.Equal(t, map[string]string{"input": "the raw text", "strict": "fail on warnings"}, d.Params)
	assert.Equal(t, "Returns an error if the input is empty.", d.Errors)
	assert.Equal(t, "Panics on invalid UTF-8.", d.Panics)
	assert.Equal(t, "Caller must hold the lock.", d.Safety)
	assert.Equal(t, []string{"let x = parse(\"a\");\n# let y = 1;"}, d.Examples)
	assert.Equal(t, []extraction.RawTag{{Name: "Custom", Text: "anything"}}, d.Tags)
}

func TestJSDoc(t *testing.T) {
	t.Parallel()

	doc := StripBlockComment(`/**
 * Fetches a user.
 *
 * @param {string} id - The user id
 * @param {Object} [opts={}] Options
 * @returns {Promise<User>} The user
 * @throws {NotFoundError} When missing
 * @example
 *   const u = await fetchUser("1");
 * @deprecated use getUser
 * @see getUser
 * @customtag keeps going
 */`)
	d := JSDoc(doc)
	require.NotNil(t, d)

	assert.Equal(t, "Fetches a user.", d.Summary)
	assert.Equal(t, "The user id", d.Params["id"])
	assert.Equal(t, "string", d.ParamTypes["id"])
	assert.Equal(t, "Options", d.Params["opts"])
	assert.Equal(t, "Object", d.ParamTypes["opts"])
	assert.Equal(t, "The user", d.Returns)
	assert.Equal(t, "Promise<User>", d.ReturnType)
	assert.Equal(t, "When missing", d.Raises["NotFoundError"])
	assert.Equal(t, []string{`const u = await fetchUser("1");`}, d.Examples)
	assert.Equal(t, "use getUser", d.Deprecated)
	assert.Equal(t, []string{"getUser"}, d.See)
	assert.Equal(t, []extraction.RawTag{{Name: "customtag", Text: "keeps going"}}, d.Tags)
}

func TestJavadocAndDoxygen(t *testing.T) {
	t.Parallel()

	jd := Javadoc("Opens a stream.\n@param path file to open\n@return the stream\n@throws IOException if unreadable")
	require.NotNil(t, jd)
	assert.Equal(t, "file to open", jd.Params["path"])
	assert.Equal(t, "the stream", jd.Returns)
	assert.Equal(t, "if unreadable", jd.Raises["IOException"])

	dx := Doxygen("\\brief Copies memory.\n\\param[in] src source buffer\n@param dst destination\n\\return bytes copied\n@note not thread safe")
	require.NotNil(t, dx)
	assert.Equal(t, "Copies memory.", dx.Summary)
	assert.Equal(t, "source buffer", dx.Params["src"])
	assert.Equal(t, "destination", dx.Params["dst"])
	assert.Equal(t, "bytes copied", dx.Returns)
	assert.Equal(t, []string{"not thread safe"}, dx.Notes)
}

func TestPHPDoc(t *testing.T) {
	t.Parallel()

	d := PHPDoc("Saves a model.\n\n@param Model $model the model\n@param $force\n@return bool true on success\n@throws RuntimeException on failure\n@property string $name\n@method static Builder query()")
	require.NotNil(t, d)

	assert.Equal(t, "the model", d.Params["model"])
	assert.Equal(t, "Model", d.ParamTypes["model"])
	assert.Contains(t, d.Params, "force")
	assert.NotContains(t, d.ParamTypes, "force")
	assert.Equal(t, "bool", d.ReturnType)
	assert.Equal(t, "true on success", d.Returns)
	assert.Equal(t, "on failure", d.Raises["RuntimeException"])
	assert.Equal(t, []extraction.RawTag{
		{Name: "property", Text: "string $name"},
		{Name: "method", Text: "static Builder query()"},
	}, d.Tags)
}

func TestYARD(t *testing.T) {
	t.Parallel()

	d := YARD("Greets someone.\n@param name [String] who to greet\n@param [Integer] times how often\n@return [String] the greeting\n@raise [ArgumentError] if name is blank")
	require.NotNil(t, d)

	assert.Equal(t, "who to greet", d.Params["name"])
	assert.Equal(t, "String", d.ParamTypes["name"])
	assert.Equal(t, "how often", d.Params["times"])
	assert.Equal(t, "Integer", d.ParamTypes["times"])
	assert.Equal(t, "String", d.ReturnType)
	assert.Equal(t, "if name is blank", d.Raises["ArgumentError"])
}

func TestPythonGoogle(t *testing.T) {
	t.Parallel()

	doc := `Fetch rows.

    Args:
        table (str): Table name.
        limit: Max rows,
            defaults to all.

    Returns:
        list: The rows.

    Raises:
        KeyError: If the table is missing.

    Yields:
        Each row.
    `
	assert.Equal(t, StyleGoogle, DetectPythonStyle(doc))
	d := Python(doc)
	require.NotNil(t, d)

	assert.Equal(t, "Fetch rows.", d.Summary)
	assert.Equal(t, "Table name.", d.Params["table"])
	assert.Equal(t, "str", d.ParamTypes["table"])
	assert.Equal(t, "Max rows, defaults to all.", d.Params["limit"])
	assert.Equal(t, "list", d.ReturnType)
	assert.Equal(t, "The rows.", d.Returns)
	assert.Equal(t, "If the table is missing.", d.Raises["KeyError"])
	assert.Equal(t, "Each row.", d.Yields)
}

func TestPythonSphinx(t *testing.T) {
	t.Parallel()

	doc := `Connect.

    :param str host: Host name.
    :param port: Port number.
    :type port: int
    :returns: A connection.
    :rtype: Connection
    :raises TimeoutError: On timeout.
    :unknown: value
    `
	assert.Equal(t, StyleSphinx, DetectPythonStyle(doc))
	d := Python(doc)
	require.NotNil(t, d)

	assert.Equal(t, "Connect.", d.Summary)
	assert.Equal(t, "Host name.", d.Params["host"])
	assert.Equal(t, "str", d.ParamTypes["host"])
	assert.Equal(t, "int", d.ParamTypes["port"])
	assert.Equal(t, "A connection.", d.Returns)
	assert.Equal(t, "Connection", d.ReturnType)
	assert.Equal(t, "On timeout.", d.Raises["TimeoutError"])
	assert.Equal(t, []extraction.RawTag{{Name: "unknown", Text: "value"}}, d.Tags)
}

func TestPythonNumPy(t *testing.T) {
	t.Parallel()

	doc := `Compute the mean.

    Parameters
    ----------
    values : array_like
        Input values.
    axis : int, optional
        Axis to reduce.

    Returns
    -------
    float
        The mean.

    Notes
    -----
    Ignores NaN.
    `
	assert.Equal(t, StyleNumPy, DetectPythonStyle(doc))
	d := Python(doc)
	require.NotNil(t, d)

	assert.Equal(t, "Compute the mean.", d.Summary)
	assert.Equal(t, "Input values.", d.Params["values"])
	assert.Equal(t, "array_like", d.ParamTypes["values"])
	assert.Equal(t, "int, optional", d.ParamTypes["axis"])
	assert.Equal(t, "float", d.ReturnType)
	assert.Equal(t, "The mean.", d.Returns)
	assert.Equal(t, []string{"Ignores NaN."}, d.Notes)
}

func TestGoDocAndSvelte(t *testing.T) {
	t.Parallel()

	g := GoDoc("Open opens a file.\n\nDeprecated: use OpenFile.")
	require.NotNil(t, g)
	assert.Equal(t, "Open opens a file.", g.Summary)
	assert.Equal(t, "use OpenFile.", g.Deprecated)

	s := SvelteComponent("<!--\n@component\nA fancy button.\n\n## Usage\n```svelte\n<Button label=\"Hi\" />\n```\n-->")
	require.NotNil(t, s)
	assert.Equal(t, "A fancy button.", s.Summary)
	assert.Equal(t, []string{"<Button label=\"Hi\" />"}, s.Examples)
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Rustdoc(""))
	assert.Nil(t, JSDoc(""))
	assert.Nil(t, Python(""))
	assert.Nil(t, PHPDoc("   "))
	assert.Nil(t, GoDoc(""))
}
