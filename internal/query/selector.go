package query

import (
	"strings"

	"github.com/gobwas/glob"

	lumoraerrors "github.com/quintant/lumora/internal/errors"
	"github.com/quintant/lumora/internal/storage"
)

// SelectorKind distinguishes the forms the grammar in §6 accepts.
type SelectorKind int

const (
	SelectorFile SelectorKind = iota
	SelectorSymbol
	SelectorSymbolLang
)

// Selector is a parsed selector, one of:
//
//	file:<repo-relative-path>
//	symbol:<name>
//	symbol_name:<lang>:<name>
//	<name>                  (shorthand for symbol:)
//	<repo-relative-path>    (shorthand for file:, detected by a path separator or extension)
type Selector struct {
	Kind SelectorKind
	Path string
	Name string
	Lang string
}

// ParseSelector parses raw text per the grammar. A bare string with no
// recognized prefix is treated as a file shorthand when it contains a
// path separator or a dot after the last separator, and as a symbol
// shorthand otherwise.
func ParseSelector(raw string) (*Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, lumoraerrors.New(lumoraerrors.InvalidArgument, "empty selector", nil)
	}

	switch {
	case strings.HasPrefix(raw, "file:"):
		return &Selector{Kind: SelectorFile, Path: strings.TrimPrefix(raw, "file:")}, nil
	case strings.HasPrefix(raw, "symbol_name:"):
		rest := strings.TrimPrefix(raw, "symbol_name:")
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, lumoraerrors.New(lumoraerrors.InvalidArgument, "malformed symbol_name selector: "+raw, nil)
		}
		return &Selector{Kind: SelectorSymbolLang, Lang: parts[0], Name: parts[1]}, nil
	case strings.HasPrefix(raw, "symbol:"):
		return &Selector{Kind: SelectorSymbol, Name: strings.TrimPrefix(raw, "symbol:")}, nil
	}

	if looksLikePath(raw) {
		return &Selector{Kind: SelectorFile, Path: raw}, nil
	}
	return &Selector{Kind: SelectorSymbol, Name: raw}, nil
}

func looksLikePath(raw string) bool {
	if strings.ContainsRune(raw, '/') {
		return true
	}
	return strings.Contains(raw, ".") && !strings.HasPrefix(raw, ".")
}

// ResolveFiles resolves a selector to the set of Files it denotes. A
// file selector resolves to exactly one file (or none); a symbol
// selector resolves to the files containing a matching definition.
func ResolveFiles(files *storage.FileRepository, entities *storage.EntityRepository, sel *Selector) ([]*storage.File, error) {
	switch sel.Kind {
	case SelectorFile:
		f, err := files.GetByPath(sel.Path)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, nil
		}
		return []*storage.File{f}, nil
	case SelectorSymbol, SelectorSymbolLang:
		matches, err := entities.FindByName(sel.Name)
		if err != nil {
			return nil, err
		}
		seen := map[int64]bool{}
		var out []*storage.File
		for _, e := range matches {
			if seen[e.FileID] {
				continue
			}
			f, err := files.GetByID(e.FileID)
			if err != nil {
				return nil, err
			}
			if f == nil {
				continue
			}
			if sel.Kind == SelectorSymbolLang && f.Language != sel.Lang {
				continue
			}
			seen[e.FileID] = true
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, nil
	}
}

func matchGlob(pattern, path string) (bool, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return false, err
	}
	return g.Match(path), nil
}
