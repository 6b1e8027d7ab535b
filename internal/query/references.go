package query

import (
	"sort"

	"github.com/quintant/lumora/internal/storage"
)

// RefResult is one scored reference in a symbol_references response.
type RefResult struct {
	Ref   *storage.Ref  `json:"ref"`
	File  *storage.File `json:"file"`
	Score float64       `json:"score"`
}

// FileCount is one entry of a top_files summary.
type FileCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// ReferencesRequest is the symbol_references input.
type ReferencesRequest struct {
	ListInput
	Selector  string
	CallsOnly bool
	Dedup     bool
	TopFiles  bool
}

// ReferencesResponse is the symbol_references output.
type ReferencesResponse struct {
	ListOutput
	Items    []RefResult `json:"items"`
	TopFiles []FileCount `json:"topFiles,omitempty"`
}

// SymbolReferences returns References whose target matches the
// selector, preferring resolved target_entity_id matches and falling
// back to name-based matches when unresolved.
func (e *Engine) SymbolReferences(req ReferencesRequest) (*ReferencesResponse, error) {
	def, max := e.limits()
	req.normalize(def, max)

	sel, err := ParseSelector(req.Selector)
	if err != nil {
		return nil, err
	}
	if sel.Kind == SelectorFile {
		return nil, invalidSelectorForOp("symbol_references", "file selectors are not supported; use symbol: or a bare name")
	}

	refs, err := e.refs.ListByName(sel.Name, req.CallsOnly)
	if err != nil {
		return nil, err
	}

	files, err := e.fileMap()
	if err != nil {
		return nil, err
	}

	results := make([]RefResult, 0, len(refs))
	for _, r := range refs {
		f := files[r.FileID]
		if f == nil {
			continue
		}
		if !matchesFilters(f.Path, f.Language, req.FileGlob, req.Language) {
			continue
		}
		results = append(results, RefResult{Ref: r, File: f, Score: refScore(r, f)})
	}

	sortRefResults(results, req.Order)

	if req.Dedup {
		results = dedupRefs(results)
	}

	var topFiles []FileCount
	if req.TopFiles {
		topFiles = aggregateTopFiles(results)
	}

	start, end, out := page(len(results), req.Offset, req.Limit)
	resp := &ReferencesResponse{ListOutput: out, Items: results[start:end], TopFiles: topFiles}
	if req.IncludeFreshness {
		ids := make([]int64, 0, len(resp.Items))
		for _, r := range resp.Items {
			ids = append(ids, r.File.ID)
		}
		resp.Freshness = freshnessFor(files, ids...)
	}
	return resp, nil
}

func refScore(r *storage.Ref, f *storage.File) float64 {
	score := 0.0
	if r.Resolved {
		score += 3
	}
	if !isVendoredPath(f.Path) {
		score += 1
	}
	return score
}

// dedupRefs collapses repeats sharing (file_id, line), keeping the
// first occurrence in the caller's chosen order.
func dedupRefs(results []RefResult) []RefResult {
	seen := map[[2]int64]bool{}
	out := make([]RefResult, 0, len(results))
	for _, r := range results {
		key := [2]int64{r.Ref.FileID, int64(r.Ref.Line)}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func aggregateTopFiles(results []RefResult) []FileCount {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.File.Path]++
	}
	out := make([]FileCount, 0, len(counts))
	for path, n := range counts {
		out = append(out, FileCount{Path: path, Count: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func sortRefResults(results []RefResult, order Order) {
	switch order {
	case OrderLineAsc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Ref.Line < results[j].Ref.Line })
	case OrderLineDesc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Ref.Line > results[j].Ref.Line })
	default:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}
}
