// Package query implements the read-only query engine: the seven
// operations the tool surface and CLI expose over the graph store
// built by internal/index. Every operation shares a common paging,
// ordering, and diagnostics shape so that a caller can treat them
// uniformly regardless of which one it invokes.
package query

import (
	"time"

	"github.com/quintant/lumora/internal/storage"
)

// Order selects how a list endpoint sorts its items before paging.
type Order string

const (
	OrderScoreDesc Order = "score_desc"
	OrderLineAsc   Order = "line_asc"
	OrderLineDesc  Order = "line_desc"
)

// Verbosity controls how much detail an item carries in its response.
type Verbosity string

const (
	VerbosityCompact Verbosity = "compact"
	VerbosityNormal  Verbosity = "normal"
	VerbosityDebug   Verbosity = "debug"
)

// ListInput is embedded by every list-shaped request.
type ListInput struct {
	Limit            int
	Offset           int
	Order            Order
	FileGlob         string
	Language         string
	MaxAgeHours      int
	Verbosity        Verbosity
	IncludeFreshness bool
}

// normalize fills in defaults and clamps limit/offset against the
// engine's configured bounds.
func (in *ListInput) normalize(defaultLimit, maxLimit int) {
	if in.Limit <= 0 {
		in.Limit = defaultLimit
	}
	if in.Limit > maxLimit {
		in.Limit = maxLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	if in.Order == "" {
		in.Order = OrderScoreDesc
	}
	if in.Verbosity == "" {
		in.Verbosity = VerbosityNormal
	}
}

// Diagnostics rides alongside a response to explain filtering, partial
// resolution, or selector failures without forcing the caller to parse
// an error.
type Diagnostics struct {
	UnresolvedCount int               `json:"unresolvedCount,omitempty"`
	FiltersApplied  []string          `json:"filtersApplied,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// FreshnessEntry reports when a file backing a result was last indexed.
type FreshnessEntry struct {
	Path      string    `json:"path"`
	IndexedAt time.Time `json:"indexedAt"`
	Hash      string    `json:"hash"`
}

// ListOutput is the shared response envelope for every list endpoint.
type ListOutput struct {
	Total       int              `json:"total"`
	HasMore     bool             `json:"hasMore"`
	NextOffset  int              `json:"nextOffset,omitempty"`
	Freshness   []FreshnessEntry `json:"freshness,omitempty"`
	Diagnostics *Diagnostics     `json:"diagnostics,omitempty"`
}

// page slices items[offset:offset+limit] and fills in the shared
// envelope fields. items must already be sorted.
func page(total, offset, limit int) (start, end int, out ListOutput) {
	out.Total = total
	if offset >= total {
		return total, total, out
	}
	end = offset + limit
	if end > total {
		end = total
	}
	out.HasMore = end < total
	if out.HasMore {
		out.NextOffset = end
	}
	return offset, end, out
}

func matchesFilters(path, language, fileGlob, wantLanguage string) bool {
	if wantLanguage != "" && language != wantLanguage {
		return false
	}
	if fileGlob != "" {
		ok, err := matchGlob(fileGlob, path)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func freshnessFor(files map[int64]*storage.File, ids ...int64) []FreshnessEntry {
	seen := map[int64]struct{}{}
	var out []FreshnessEntry
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		f, ok := files[id]
		if !ok {
			continue
		}
		out = append(out, FreshnessEntry{Path: f.Path, IndexedAt: f.LastIndexedAt, Hash: f.ContentHash})
	}
	return out
}
