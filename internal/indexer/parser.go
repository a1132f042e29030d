package indexer

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

var extensionLanguages = map[string]extraction.Language{
	".rs":       extraction.LangRust,
	".py":       extraction.LangPython,
	".pyi":      extraction.LangPython,
	".ts":       extraction.LangTypeScript,
	".mts":      extraction.LangTypeScript,
	".cts":      extraction.LangTypeScript,
	".tsx":      extraction.LangTSX,
	".js":       extraction.LangJavaScript,
	".jsx":      extraction.LangJavaScript,
	".mjs":      extraction.LangJavaScript,
	".cjs":      extraction.LangJavaScript,
	".go":       extraction.LangGo,
	".c":        extraction.LangC,
	".h":        extraction.LangC,
	".cpp":      extraction.LangCpp,
	".cc":       extraction.LangCpp,
	".cxx":      extraction.LangCpp,
	".hpp":      extraction.LangCpp,
	".hh":       extraction.LangCpp,
	".java":     extraction.LangJava,
	".php":      extraction.LangPHP,
	".rb":       extraction.LangRuby,
	".rake":     extraction.LangRuby,
	".md":       extraction.LangMarkdown,
	".markdown": extraction.LangMarkdown,
	".rst":      extraction.LangRST,
	".txt":      extraction.LangPlainText,
	".toml":     extraction.LangTOML,
	".yaml":     extraction.LangYAML,
	".yml":      extraction.LangYAML,
	".json":     extraction.LangJSON,
	".css":      extraction.LangCSS,
	".html":     extraction.LangHTML,
	".htm":      extraction.LangHTML,
	".vue":      extraction.LangVue,
	".svelte":   extraction.LangSvelte,
}

// DetectLanguage maps a file path to a language tag by extension.
func DetectLanguage(filePath string) (extraction.Language, bool) {
	lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(filePath))]
	return lang, ok
}

// LanguageExtensions lists the extensions recognized for each language,
// sorted.
func LanguageExtensions() map[extraction.Language][]string {
	out := make(map[extraction.Language][]string)
	for ext, lang := range extensionLanguages {
		out[lang] = append(out[lang], ext)
	}
	for _, exts := range out {
		sort.Strings(exts)
	}
	return out
}
