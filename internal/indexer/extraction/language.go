package extraction

import (
	"fmt"
	"strings"
)

// Language is the closed set of inputs the engine can extract from.
type Language string

const (
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangGo         Language = "go"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangJava       Language = "java"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangMarkdown   Language = "markdown"
	LangRST        Language = "rst"
	LangPlainText  Language = "plaintext"
	LangTOML       Language = "toml"
	LangYAML       Language = "yaml"
	LangJSON       Language = "json"
	LangCSS        Language = "css"
	LangHTML       Language = "html"
	LangVue        Language = "vue"
	LangSvelte     Language = "svelte"
)

// AllLanguages lists every language tag in a stable order.
var AllLanguages = []Language{
	LangRust, LangPython, LangTypeScript, LangTSX, LangJavaScript, LangGo,
	LangC, LangCpp, LangJava, LangPHP, LangRuby,
	LangMarkdown, LangRST, LangPlainText,
	LangTOML, LangYAML, LangJSON,
	LangCSS, LangHTML, LangVue, LangSvelte,
}

var languageAliases = map[string]Language{
	"rs":               LangRust,
	"py":               LangPython,
	"ts":               LangTypeScript,
	"js":               LangJavaScript,
	"jsx":              LangJavaScript,
	"golang":           LangGo,
	"c++":              LangCpp,
	"cxx":              LangCpp,
	"rb":               LangRuby,
	"md":               LangMarkdown,
	"restructuredtext": LangRST,
	"text":             LangPlainText,
	"txt":              LangPlainText,
	"yml":              LangYAML,
}

// ParseLanguage resolves a language tag or a common alias.
func ParseLanguage(s string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, l := range AllLanguages {
		if string(l) == key {
			return l, nil
		}
	}
	if l, ok := languageAliases[key]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// IsDocument reports whether the language is a headed document format.
func (l Language) IsDocument() bool {
	return l == LangMarkdown || l == LangRST || l == LangPlainText
}
