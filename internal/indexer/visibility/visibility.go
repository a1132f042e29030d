// Package visibility holds the per-language access rules. Each rule is a pure
// function of the signals an extractor collected; none of them touch a tree.
package visibility

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// Rust maps a visibility modifier ("pub", "pub(crate)", "") to a visibility.
// Items without a modifier are private.
func Rust(modifier string) extraction.Visibility {
	m := strings.Join(strings.Fields(modifier), "")
	switch {
	case m == "":
		return extraction.VisibilityPrivate
	case m == "pub":
		return extraction.VisibilityPublic
	case strings.HasPrefix(m, "pub(self)"):
		return extraction.VisibilityPrivate
	case strings.HasPrefix(m, "pub("), m == "crate":
		return extraction.VisibilityCrate
	}
	return extraction.VisibilityPrivate
}

// Python applies naming conventions: __dunder__ is public, __mangled is
// private, _single is protected. A name listed in the module's export list
// is exported whatever its spelling.
func Python(name string, exports map[string]bool) extraction.Visibility {
	if exports[name] {
		return extraction.VisibilityExported
	}
	switch {
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4:
		return extraction.VisibilityPublic
	case strings.HasPrefix(name, "__"):
		return extraction.VisibilityPrivate
	case strings.HasPrefix(name, "_"):
		return extraction.VisibilityProtected
	}
	return extraction.VisibilityPublic
}

// GoIdent exports identifiers that start with an upper-case letter.
func GoIdent(name string) extraction.Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return extraction.VisibilityPublic
	}
	return extraction.VisibilityPrivate
}

// Modifiers maps access keywords directly. With no access keyword the
// language default applies. A member that is protected and also restricted
// (protected internal, private protected) resolves to protected.
func Modifiers(mods []string, def extraction.Visibility) extraction.Visibility {
	var public, private, protected, internal bool
	for _, m := range mods {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "public", "pub", "open":
			public = true
		case "private", "fileprivate":
			private = true
		case "protected":
			protected = true
		case "internal", "package":
			internal = true
		}
	}
	switch {
	case protected:
		return extraction.VisibilityProtected
	case private:
		return extraction.VisibilityPrivate
	case public:
		return extraction.VisibilityPublic
	case internal:
		return extraction.VisibilityCrate
	}
	return def
}

// Exported applies export-statement rules: a symbol reached through an export
// wrapper is exported, anything else is module private.
func Exported(exported bool) extraction.Visibility {
	if exported {
		return extraction.VisibilityExported
	}
	return extraction.VisibilityPrivate
}

// CStorage treats file-scoped (static) symbols as private.
func CStorage(isStatic bool) extraction.Visibility {
	if isStatic {
		return extraction.VisibilityPrivate
	}
	return extraction.VisibilityPublic
}

// Default returns the visibility used when a language offers no signal.
func Default(lang extraction.Language) extraction.Visibility {
	switch lang {
	case extraction.LangRust:
		return extraction.VisibilityPrivate
	case extraction.LangJava:
		return extraction.VisibilityCrate
	case extraction.LangTypeScript, extraction.LangTSX, extraction.LangJavaScript:
		return extraction.VisibilityPrivate
	}
	return extraction.VisibilityPublic
}
