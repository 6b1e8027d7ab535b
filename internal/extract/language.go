// Package extract implements the Language Extractor Registry: per-file
// dispatch to a tree-sitter based parser that yields definitions,
// references (with call sites flagged), and imports. Clone fingerprints
// are computed separately by internal/clone.
//
// The tree-sitter-backed implementation lives behind a cgo build tag
// (treesitter.go); a cgo-free stub (stub.go) keeps the rest of the
// engine compiling and running, at the cost of returning empty
// extractions, on platforms without a C toolchain.
package extract

import (
	"strings"
)

// Language identifies one of the grammars wired into the extractor.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangUnknown    Language = ""
)

var extensionToLanguage = map[string]Language{
	".go":   LangGo,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTSX,
	".py":   LangPython,
	".rs":   LangRust,
	".java": LangJava,
	".kt":   LangKotlin,
	".kts":  LangKotlin,
}

// LanguageFromExtension maps a lowercased file extension (including the
// leading dot) to a known Language. ok is false for anything the
// extractor does not have a grammar for.
func LanguageFromExtension(ext string) (Language, bool) {
	lang, ok := extensionToLanguage[strings.ToLower(ext)]
	return lang, ok
}
