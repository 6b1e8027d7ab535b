package extract

import (
	"context"
	"path/filepath"
)

// Capability is a bitmask of the facts an Extractor can produce.
type Capability int

const (
	CapDefinitions Capability = 1 << iota
	CapReferences
	CapImports
	CapCalls
	CapFingerprints
)

// Has reports whether c includes flag.
func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

// Definition is one extracted entity: a function, method, type, or
// other named construct.
type Definition struct {
	Name        string
	Kind        string // "function", "method", "type", "interface", "class", "const"
	StartLine   int
	EndLine     int
	Signature   string
	Container   string // name of the enclosing definition, if any
	Exported    bool
}

// Reference is a single identifier use.
type Reference struct {
	Name   string
	Line   int
	Column int
	IsCall bool
}

// ImportStmt is a single import/require/use statement.
type ImportStmt struct {
	RawPath string
	Alias   string
}

// Extraction is everything a single file yields.
type Extraction struct {
	Definitions []Definition
	References  []Reference
	Imports     []ImportStmt
	ParseOK     bool
}

// Extractor is implemented once per build mode (cgo tree-sitter vs the
// cgo-free stub).
type Extractor interface {
	Capabilities() Capability
	Extract(ctx context.Context, path string, src []byte) (*Extraction, error)
}

// Registry dispatches by file extension to the single process-wide
// Extractor, mirroring the teacher's one-parser-many-languages layout
// rather than one Extractor implementation per language.
type Registry struct {
	extractor Extractor
}

// NewRegistry wraps e behind extension dispatch. CanExtract reports
// whether a path's extension has a grammar; internal/scan classifies
// files with LanguageFromExtension directly.
func NewRegistry(e Extractor) *Registry {
	return &Registry{extractor: e}
}

// CanExtract reports whether path's extension has a known grammar.
func (r *Registry) CanExtract(path string) bool {
	_, ok := LanguageFromExtension(filepath.Ext(path))
	return ok
}

// LanguageOf returns the Language lumora assigns to path, or
// LangUnknown if no grammar is registered.
func (r *Registry) LanguageOf(path string) Language {
	lang, _ := LanguageFromExtension(filepath.Ext(path))
	return lang
}

// Extract runs the underlying Extractor's Extract. Callers on an
// unsupported extension get an empty, parse_ok=true Extraction without
// ever reaching the parser, per the "unknown extensions yield an empty
// extraction" rule.
func (r *Registry) Extract(ctx context.Context, path string, src []byte) (*Extraction, error) {
	if !r.CanExtract(path) {
		return &Extraction{ParseOK: true}, nil
	}
	return r.extractor.Extract(ctx, path, src)
}

// Capabilities reports what the underlying Extractor can produce.
func (r *Registry) Capabilities() Capability {
	return r.extractor.Capabilities()
}
