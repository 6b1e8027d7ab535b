package query

import (
	"sort"

	"github.com/quintant/lumora/internal/storage"
)

// SliceRequest is the minimal_slice input.
type SliceRequest struct {
	File                     string
	Line                     int
	Depth                    int
	MaxNeighbors             int
	Dedup                    bool
	SuppressLowSignalRepeats bool
	LowSignalNameCap         int
	PreferProjectSymbols     bool
}

// NeighborKind classifies a slice neighbor by how it relates to the
// anchor entity.
type NeighborKind string

const (
	KindCallee    NeighborKind = "callees"
	KindCaller    NeighborKind = "callers"
	KindReference NeighborKind = "references"
	KindImport    NeighborKind = "imports"
)

// Neighbor is one scored item of a minimal_slice response.
type Neighbor struct {
	Kind   NeighborKind    `json:"kind"`
	Entity *storage.Entity `json:"entity,omitempty"`
	File   *storage.File   `json:"file"`
	Name   string          `json:"name"`
	Score  float64         `json:"score"`
	Hops   int             `json:"hops"`
}

// SliceSummary reports how many candidates were dropped and why.
type SliceSummary struct {
	TotalCandidates    int `json:"totalCandidates"`
	TruncatedCount     int `json:"truncatedCount"`
	LowSignalSuppressed int `json:"lowSignalSuppressed"`
}

// SliceResponse is the minimal_slice output, grouped by neighbor kind.
type SliceResponse struct {
	Anchor      *storage.Entity         `json:"anchor,omitempty"`
	Callees     []Neighbor              `json:"callees,omitempty"`
	Callers     []Neighbor              `json:"callers,omitempty"`
	References  []Neighbor              `json:"references,omitempty"`
	Imports     []Neighbor              `json:"imports,omitempty"`
	Summary     SliceSummary            `json:"summary"`
	Diagnostics *Diagnostics            `json:"diagnostics,omitempty"`
}

// MinimalSlice returns the minimal context window around (file, line):
// the innermost enclosing entity, then its callees/callers/references/
// imports out to depth hops, scored and truncated per §4.6.
func (e *Engine) MinimalSlice(req SliceRequest) (*SliceResponse, error) {
	if req.Depth <= 0 {
		req.Depth = 2
	}
	if req.MaxNeighbors <= 0 {
		req.MaxNeighbors = 40
	}
	if req.LowSignalNameCap <= 0 {
		req.LowSignalNameCap = 1
	}

	f, err := e.files.GetByPath(req.File)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return &SliceResponse{Diagnostics: &Diagnostics{Reason: "selector_unresolved"}}, nil
	}

	entities, err := e.entities.ListByFile(f.ID)
	if err != nil {
		return nil, err
	}
	anchor := enclosingEntityAtLine(entities, req.Line)

	visited := map[int64]bool{}
	nameOccurrences := map[string]int{}
	var all []Neighbor

	frontier := []int64{}
	if anchor != nil {
		visited[anchor.ID] = true
		frontier = append(frontier, anchor.ID)
	}

	for hop := 1; hop <= req.Depth && len(frontier) > 0; hop++ {
		var next []int64
		for _, entID := range frontier {
			neighbors, nerr := e.sliceNeighbors(entID, f)
			if nerr != nil {
				return nil, nerr
			}
			for _, n := range neighbors {
				if n.Entity != nil {
					if visited[n.Entity.ID] {
						continue
					}
					visited[n.Entity.ID] = true
					next = append(next, n.Entity.ID)
				}
				n.Hops = hop
				all = append(all, n)
			}
		}
		frontier = next
	}

	imports, err := e.imports.ListByFile(f.ID)
	if err != nil {
		return nil, err
	}
	files, err := e.fileMap()
	if err != nil {
		return nil, err
	}
	for _, imp := range imports {
		n := Neighbor{Kind: KindImport, File: f, Name: imp.RawPath, Hops: 1}
		if imp.ResolvedFileID != nil {
			n.File = files[*imp.ResolvedFileID]
		}
		all = append(all, n)
	}

	// Score and apply the low-signal cap in a single pass, in discovery
	// order, so the suppress_low_signal_repeats penalty sees the prior
	// visit count it's actually supposed to penalize rather than a map
	// that's still empty at scoring time.
	totalCandidates := len(all)
	lowSignalSuppressed := 0
	filtered := make([]Neighbor, 0, len(all))
	for _, n := range all {
		priorVisits := nameOccurrences[n.Name]
		n.Score = scoreNeighbor(n, f, priorVisits, req.SuppressLowSignalRepeats)
		nameOccurrences[n.Name] = priorVisits + 1
		if nameOccurrences[n.Name] > req.LowSignalNameCap {
			lowSignalSuppressed++
			continue
		}
		filtered = append(filtered, n)
	}

	if req.Dedup {
		filtered = dedupNeighbors(filtered)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if req.PreferProjectSymbols {
			pi, pj := isProjectNeighbor(filtered[i]), isProjectNeighbor(filtered[j])
			if pi != pj {
				return pi
			}
		}
		return filtered[i].Score > filtered[j].Score
	})

	truncated := 0
	if len(filtered) > req.MaxNeighbors {
		truncated = len(filtered) - req.MaxNeighbors
		filtered = filtered[:req.MaxNeighbors]
	}

	resp := &SliceResponse{
		Anchor: anchor,
		Summary: SliceSummary{
			TotalCandidates:     totalCandidates,
			TruncatedCount:      truncated,
			LowSignalSuppressed: lowSignalSuppressed,
		},
	}
	for _, n := range filtered {
		switch n.Kind {
		case KindCallee:
			resp.Callees = append(resp.Callees, n)
		case KindCaller:
			resp.Callers = append(resp.Callers, n)
		case KindReference:
			resp.References = append(resp.References, n)
		case KindImport:
			resp.Imports = append(resp.Imports, n)
		}
	}
	return resp, nil
}

func (e *Engine) sliceNeighbors(entityID int64, anchorFile *storage.File) ([]Neighbor, error) {
	var out []Neighbor

	callees, err := e.callEdges.ListCallees(entityID)
	if err != nil {
		return nil, err
	}
	for _, edge := range callees {
		ent, gerr := e.entities.GetByID(edge.CalleeEntityID)
		if gerr != nil || ent == nil {
			continue
		}
		f, ferr := e.files.GetByID(ent.FileID)
		if ferr != nil || f == nil {
			continue
		}
		out = append(out, Neighbor{Kind: KindCallee, Entity: ent, File: f, Name: ent.Name})
	}

	callers, err := e.callEdges.ListCallers(entityID)
	if err != nil {
		return nil, err
	}
	for _, edge := range callers {
		ent, gerr := e.entities.GetByID(edge.CallerEntityID)
		if gerr != nil || ent == nil {
			continue
		}
		f, ferr := e.files.GetByID(ent.FileID)
		if ferr != nil || f == nil {
			continue
		}
		out = append(out, Neighbor{Kind: KindCaller, Entity: ent, File: f, Name: ent.Name})
	}

	anchorEnt, err := e.entities.GetByID(entityID)
	if err != nil || anchorEnt == nil {
		return out, nil
	}
	refs, err := e.refs.ListByFile(anchorFile.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		if r.Line < anchorEnt.StartLine || r.Line > anchorEnt.EndLine {
			continue
		}
		if r.TargetEntityID == nil {
			continue
		}
		ent, gerr := e.entities.GetByID(*r.TargetEntityID)
		if gerr != nil || ent == nil || ent.ID == entityID {
			continue
		}
		f, ferr := e.files.GetByID(ent.FileID)
		if ferr != nil || f == nil {
			continue
		}
		out = append(out, Neighbor{Kind: KindReference, Entity: ent, File: f, Name: ent.Name})
	}

	return out, nil
}

func enclosingEntityAtLine(entities []*storage.Entity, line int) *storage.Entity {
	var best *storage.Entity
	for _, ent := range entities {
		if line < ent.StartLine || line > ent.EndLine {
			continue
		}
		if best == nil || (ent.EndLine-ent.StartLine) < (best.EndLine-best.StartLine) {
			best = ent
		}
	}
	return best
}

// scoreNeighbor implements spec §4.6's minimal_slice scoring: +3
// project-local, +2 resolved (has an Entity), +1 same-language as the
// anchor file, −2 per prior visit of the same name when
// suppressLowSignalRepeats is set.
func scoreNeighbor(n Neighbor, anchorFile *storage.File, priorVisits int, suppressLowSignalRepeats bool) float64 {
	score := 0.0
	if n.File != nil && !isVendoredPath(n.File.Path) {
		score += 3
	}
	if n.Entity != nil {
		score += 2
	}
	if n.File != nil && anchorFile != nil && n.File.Language != "" && n.File.Language == anchorFile.Language {
		score += 1
	}
	if suppressLowSignalRepeats {
		score -= 2 * float64(priorVisits)
	}
	return score
}

func isProjectNeighbor(n Neighbor) bool {
	if n.File == nil {
		return true
	}
	return !isVendoredPath(n.File.Path)
}

func dedupNeighbors(neighbors []Neighbor) []Neighbor {
	seen := map[string]bool{}
	out := make([]Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		key := string(n.Kind) + "|" + n.Name
		if n.File != nil {
			key += "|" + n.File.Path
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
