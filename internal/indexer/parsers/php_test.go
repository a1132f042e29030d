package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// Test Plan for the PHP extractor:
// - A statement namespace is a module and owns the declarations after it
// - Classes record extends, implements and used traits
// - Members default to public; modifiers override
// - Constructors are recognized, promoted parameters become properties
// - Properties and class constants carry types and values
// - @property and @method tags in a class doc become members
// - Interfaces make their methods abstract; enums list their cases
// - Attributes are kept out of signatures

const phpSample = `<?php
namespace App\Models;

/**
 * A user account.
 *
 * @property string $email The address
 * @method static User find(int $id) Loads a user
 */
#[Entity]
final class User extends Model implements JsonSerializable
{
    use HasFactory;

    public const TABLE = 'users';
    protected static ?string $connection = null;
    private $cache;

    public function __construct(private int $id, string $name) {}

    /** Serializes the user. */
    public function jsonSerialize(): array
    {
        return [];
    }

    function touch() {}
}

interface Repo
{
    public function all(): iterable;
}

enum Suit: string
{
    case Hearts = 'H';
    case Spades = 'S';
}

function helper($x) { return $x; }
`

func TestPHP_NamespaceAndClass(t *testing.T) {
	t.Parallel()

	items := extract(t, extraction.LangPHP, phpSample)

	ns := findItem(t, items, extraction.KindModule, `App\Models`)
	assert.Equal(t, 2, ns.StartLine)
	assert.Equal(t, 41, ns.EndLine)

	user := findItem(t, items, extraction.KindClass, "User")
	assert.Equal(t, "final class User extends Model implements JsonSerializable", user.Signature)
	assert.Equal(t, `App\Models`, user.Metadata.OwnerName)
	assert.Equal(t, extraction.KindModule, user.Metadata.OwnerKind)
	assert.Equal(t, []string{"Model", "JsonSerializable", "HasFactory"}, user.Metadata.BaseTypes)
	assert.Equal(t, []string{"#[Entity]"}, user.Metadata.Attributes)
	require.NotNil(t, user.Metadata.DocSections)
	assert.Equal(t, "A user account.", user.Metadata.DocSections.Summary)

	helper := findItem(t, items, extraction.KindFunction, "helper")
	assert.Equal(t, `App\Models`, helper.Metadata.OwnerName)
	assert.Equal(t, []string{"$x"}, helper.Metadata.Parameters)
}

func TestPHP_Members(t *testing.T) {
	t.Parallel()

	items := extract(t, extraction.LangPHP, phpSample)

	ctor := findItem(t, items, extraction.KindConstructor, "__construct")
	assert.Equal(t, []string{"private int $id", "string $name"}, ctor.Metadata.Parameters)

	id := findItem(t, items, extraction.KindProperty, "id")
	assert.Equal(t, extraction.VisibilityPrivate, id.Visibility)
	assert.Equal(t, "int", id.Metadata.ReturnType)
	assert.Equal(t, "User", id.Metadata.OwnerName)

	table := findItem(t, items, extraction.KindConstant, "TABLE")
	assert.Equal(t, "'users'", table.Metadata.Value)
	assert.Equal(t, extraction.VisibilityPublic, table.Visibility)

	conn := findItem(t, items, extraction.KindProperty, "connection")
	assert.Equal(t, extraction.VisibilityProtected, conn.Visibility)
	assert.True(t, conn.Metadata.IsStatic)
	assert.Equal(t, "?string", conn.Metadata.ReturnType)
	assert.Equal(t, "null", conn.Metadata.Value)

	cache := findItem(t, items, extraction.KindProperty, "cache")
	assert.Equal(t, extraction.VisibilityPrivate, cache.Visibility)

	ser := findItem(t, items, extraction.KindMethod, "jsonSerialize")
	assert.Equal(t, "public function jsonSerialize(): array", ser.Signature)
	assert.Equal(t, "array", ser.Metadata.ReturnType)
	assert.Equal(t, "Serializes the user.", ser.Doc)

	touch := findItem(t, items, extraction.KindMethod, "touch")
	assert.Equal(t, extraction.VisibilityPublic, touch.Visibility)
}

func TestPHP_MagicMembers(t *testing.T) {
	t.Parallel()

	items := extract(t, extraction.LangPHP, phpSample)

	email := findItem(t, items, extraction.KindProperty, "email")
	assert.Equal(t, "string", email.Metadata.ReturnType)
	assert.Equal(t, "The address", email.Doc)
	assert.Equal(t, []string{"@property"}, email.Metadata.Attributes)
	assert.Equal(t, "User", email.Metadata.OwnerName)

	find := findItem(t, items, extraction.KindMethod, "find")
	assert.True(t, find.Metadata.IsStatic)
	assert.Equal(t, "User", find.Metadata.ReturnType)
	assert.Equal(t, []string{"int $id"}, find.Metadata.Parameters)
	assert.Equal(t, "Loads a user", find.Doc)

	user := findItem(t, items, extraction.KindClass, "User")
	assert.Contains(t, user.Metadata.Fields, "email")
	assert.Contains(t, user.Metadata.Methods, "find")
}

func TestPHP_InterfaceAndEnum(t *testing.T) {
	t.Parallel()

	items := extract(t, extraction.LangPHP, phpSample)

	all := findItem(t, items, extraction.KindMethod, "all")
	assert.True(t, all.Metadata.IsAbstract)
	assert.Equal(t, "Repo", all.Metadata.OwnerName)
	assert.Equal(t, "public function all(): iterable", all.Signature)

	suit := findItem(t, items, extraction.KindEnum, "Suit")
	assert.Equal(t, []string{"Hearts", "Spades"}, suit.Metadata.Variants)
}

func TestParseMagicMethod(t *testing.T) {
	t.Parallel()

	it, ok := parseMagicMethod("string name()")
	require.True(t, ok)
	assert.Equal(t, "name", it.Name)
	assert.Equal(t, "string", it.Metadata.ReturnType)
	assert.Empty(t, it.Metadata.Parameters)

	_, ok = parseMagicMethod("no parens here")
	assert.False(t, ok)
}
