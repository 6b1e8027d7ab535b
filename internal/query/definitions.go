package query

import (
	"sort"
	"strings"

	"github.com/quintant/lumora/internal/storage"
)

// EntityResult is one scored definition in a symbol_definitions response.
type EntityResult struct {
	Entity *storage.Entity `json:"entity"`
	File   *storage.File   `json:"file"`
	Score  float64         `json:"score"`
}

// DefinitionsRequest is the symbol_definitions input.
type DefinitionsRequest struct {
	ListInput
	Selector string
}

// DefinitionsResponse is the symbol_definitions output.
type DefinitionsResponse struct {
	ListOutput
	Items []EntityResult `json:"items"`
}

// SymbolDefinitions returns entities matching the selector's name (or
// qualified name) exactly, ranked project-declared-first, exact-case
// first, then by ascending name length as a stand-in for qualified-name
// length since the store does not track a separate qualified form.
func (e *Engine) SymbolDefinitions(req DefinitionsRequest) (*DefinitionsResponse, error) {
	def, max := e.limits()
	req.normalize(def, max)

	sel, err := ParseSelector(req.Selector)
	if err != nil {
		return nil, err
	}

	var matches []*storage.Entity
	switch sel.Kind {
	case SelectorFile:
		f, ferr := e.files.GetByPath(sel.Path)
		if ferr != nil {
			return nil, ferr
		}
		resp := &DefinitionsResponse{}
		if f == nil {
			resp.Diagnostics = &Diagnostics{Reason: "selector_unresolved"}
			return resp, nil
		}
		matches, err = e.entities.ListByFile(f.ID)
	default:
		matches, err = e.entities.FindByName(sel.Name)
		if err == nil && len(matches) == 0 {
			matches, err = e.caseInsensitiveMatches(sel.Name)
		}
		if sel.Kind == SelectorSymbolLang {
			matches = filterByLang(matches, e.files, sel.Lang)
		}
	}
	if err != nil {
		return nil, err
	}

	files, err := e.fileMap()
	if err != nil {
		return nil, err
	}

	wantName := sel.Name
	results := make([]EntityResult, 0, len(matches))
	for _, ent := range matches {
		f := files[ent.FileID]
		if f == nil {
			continue
		}
		if !matchesFilters(f.Path, f.Language, req.FileGlob, req.Language) {
			continue
		}
		results = append(results, EntityResult{Entity: ent, File: f, Score: definitionScore(ent, f, wantName)})
	}

	sortEntityResults(results, req.Order)

	start, end, out := page(len(results), req.Offset, req.Limit)
	resp := &DefinitionsResponse{ListOutput: out, Items: results[start:end]}
	if req.IncludeFreshness {
		ids := make([]int64, 0, len(resp.Items))
		for _, r := range resp.Items {
			ids = append(ids, r.File.ID)
		}
		resp.Freshness = freshnessFor(files, ids...)
	}
	return resp, nil
}

func (e *Engine) caseInsensitiveMatches(name string) ([]*storage.Entity, error) {
	all, err := e.entities.AllNames()
	if err != nil {
		return nil, err
	}
	var out []*storage.Entity
	for _, ent := range all {
		if strings.EqualFold(ent.Name, name) {
			out = append(out, ent)
		}
	}
	return out, nil
}

func filterByLang(entities []*storage.Entity, files *storage.FileRepository, lang string) []*storage.Entity {
	var out []*storage.Entity
	for _, ent := range entities {
		f, err := files.GetByID(ent.FileID)
		if err != nil || f == nil || f.Language != lang {
			continue
		}
		out = append(out, ent)
	}
	return out
}

// isVendoredPath flags entities defined under a vendored/external tree,
// the "foreign" tier in the spec's ranking rule. The engine has no
// cross-compilation-unit dependency graph (that is explicitly out of
// scope, see §4.4's Non-goal), so "imported" vs "foreign" collapses to
// this single external tier.
func isVendoredPath(path string) bool {
	for _, prefix := range []string{"vendor/", "node_modules/", "third_party/"} {
		if strings.HasPrefix(path, prefix) || strings.Contains(path, "/"+prefix) {
			return true
		}
	}
	return false
}

func definitionScore(ent *storage.Entity, f *storage.File, wantName string) float64 {
	score := 0.0
	if !isVendoredPath(f.Path) {
		score += 10
	}
	if ent.Name == wantName {
		score += 5
	} else if strings.EqualFold(ent.Name, wantName) {
		score += 2
	}
	// Shorter names rank slightly higher as a qualified-name-length proxy.
	score -= float64(len(ent.Name)) * 0.01
	return score
}

func sortEntityResults(results []EntityResult, order Order) {
	switch order {
	case OrderLineAsc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Entity.StartLine < results[j].Entity.StartLine })
	case OrderLineDesc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Entity.StartLine > results[j].Entity.StartLine })
	default:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}
}
