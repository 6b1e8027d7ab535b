package query

import (
	"sort"

	"github.com/quintant/lumora/internal/storage"
)

// CallerResult is one scored call site in a symbol_callers response.
type CallerResult struct {
	CallerEntity *storage.Entity `json:"callerEntity"`
	File         *storage.File   `json:"file"`
	Line         int             `json:"line"`
	Score        float64         `json:"score"`
}

// CallersRequest is the symbol_callers input.
type CallersRequest struct {
	ListInput
	Selector string
	Dedup    bool
}

// CallersResponse is the symbol_callers output.
type CallersResponse struct {
	ListOutput
	Items []CallerResult `json:"items"`
}

// SymbolCallers returns the callers recorded in CallEdges for every
// definition whose name matches the selector, plus the call references
// with that name that never resolved to an entity.
func (e *Engine) SymbolCallers(req CallersRequest) (*CallersResponse, error) {
	def, max := e.limits()
	req.normalize(def, max)

	sel, err := ParseSelector(req.Selector)
	if err != nil {
		return nil, err
	}
	if sel.Kind == SelectorFile {
		return nil, invalidSelectorForOp("symbol_callers", "file selectors are not supported; use symbol: or a bare name")
	}

	targets, err := e.entities.FindByName(sel.Name)
	if err != nil {
		return nil, err
	}

	files, err := e.fileMap()
	if err != nil {
		return nil, err
	}

	var results []CallerResult
	for _, target := range targets {
		edges, listErr := e.callEdges.ListCallers(target.ID)
		if listErr != nil {
			return nil, listErr
		}
		for _, edge := range edges {
			caller, gerr := e.entities.GetByID(edge.CallerEntityID)
			if gerr != nil {
				return nil, gerr
			}
			if caller == nil {
				continue
			}
			ref, rerr := e.refs.GetByID(edge.ReferenceID)
			if rerr != nil {
				return nil, rerr
			}
			line := caller.StartLine
			if ref != nil {
				line = ref.Line
			}
			f := files[caller.FileID]
			if f == nil {
				continue
			}
			if !matchesFilters(f.Path, f.Language, req.FileGlob, req.Language) {
				continue
			}
			score := 0.0
			if !isVendoredPath(f.Path) {
				score += 1
			}
			results = append(results, CallerResult{CallerEntity: caller, File: f, Line: line, Score: score})
		}
	}

	// Unresolved calls: references by name whose is_call target never
	// got an entity, unioned in alongside the resolved call_edges above
	// rather than only surfacing when the name resolved to no entity at
	// all — a defined symbol can still have unresolved callers (e.g. a
	// cross-file call the basename-only import closure in resolve.go
	// couldn't bind), and those must not be dropped.
	unresolvedRefs, rerr := e.refs.ListByName(sel.Name, true)
	if rerr != nil {
		return nil, rerr
	}
	for _, r := range unresolvedRefs {
		if r.Resolved {
			continue
		}
		f := files[r.FileID]
		if f == nil {
			continue
		}
		if !matchesFilters(f.Path, f.Language, req.FileGlob, req.Language) {
			continue
		}
		results = append(results, CallerResult{File: f, Line: r.Line, Score: 0})
	}

	sortCallerResults(results, req.Order)

	if req.Dedup {
		results = dedupCallers(results)
	}

	start, end, out := page(len(results), req.Offset, req.Limit)
	resp := &CallersResponse{ListOutput: out, Items: results[start:end]}
	if req.IncludeFreshness {
		ids := make([]int64, 0, len(resp.Items))
		for _, r := range resp.Items {
			ids = append(ids, r.File.ID)
		}
		resp.Freshness = freshnessFor(files, ids...)
	}
	return resp, nil
}

type callerDedupKey struct {
	fileID int64
	line   int
}

func dedupCallers(results []CallerResult) []CallerResult {
	seen := map[callerDedupKey]bool{}
	out := make([]CallerResult, 0, len(results))
	for _, r := range results {
		var fileID int64
		if r.File != nil {
			fileID = r.File.ID
		}
		key := callerDedupKey{fileID: fileID, line: r.Line}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func sortCallerResults(results []CallerResult, order Order) {
	switch order {
	case OrderLineAsc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Line < results[j].Line })
	case OrderLineDesc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Line > results[j].Line })
	default:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}
}
