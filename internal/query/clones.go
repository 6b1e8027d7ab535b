package query

import (
	"path/filepath"
	"sort"

	"github.com/quintant/lumora/internal/storage"
)

// CloneMode selects between the two clone_matches result shapes.
type CloneMode string

const (
	CloneModeMatches  CloneMode = "matches"
	CloneModeHotspots CloneMode = "hotspots"
)

// CloneMatchesRequest is the clone_matches input.
type CloneMatchesRequest struct {
	ListInput
	Paths         []string
	Mode          CloneMode
	MinSimilarity float64
}

// CloneMatch is one file pair sharing fingerprint windows.
type CloneMatch struct {
	FileA      *storage.File `json:"fileA"`
	FileB      *storage.File `json:"fileB"`
	Similarity float64       `json:"similarity"`
	SharedWindows int        `json:"sharedWindows"`
}

// CloneHotspot aggregates clone pressure by directory.
type CloneHotspot struct {
	Directory   string  `json:"directory"`
	MatchCount  int     `json:"matchCount"`
	AvgSimilarity float64 `json:"avgSimilarity"`
}

// CloneAnalysis reports how the threshold affected the result set.
type CloneAnalysis struct {
	CandidateFiles         int     `json:"candidateFiles"`
	FilteredByThreshold    int     `json:"filteredByThreshold"`
	SuggestedMinSimilarity float64 `json:"suggestedMinSimilarity,omitempty"`
}

// CloneMatchesResponse is the clone_matches output.
type CloneMatchesResponse struct {
	ListOutput
	Matches  []CloneMatch   `json:"matches,omitempty"`
	Hotspots []CloneHotspot `json:"hotspots,omitempty"`
	Analysis CloneAnalysis  `json:"analysis"`
}

// CloneMatches finds fingerprint collisions involving the query file(s)
// (mode=matches) or aggregates collision pressure by directory
// (mode=hotspots). Similarity is shared_fingerprints /
// max(total_fingerprints(A), total_fingerprints(B)). If fewer than 3
// results meet the threshold, the response suggests the threshold that
// would yield 5 results, floored at 0.1.
func (e *Engine) CloneMatches(req CloneMatchesRequest) (*CloneMatchesResponse, error) {
	def, max := e.limits()
	req.normalize(def, max)
	if req.MinSimilarity <= 0 {
		req.MinSimilarity = e.cfg.Clone.MinSimilarity
	}
	if req.Mode == "" {
		req.Mode = CloneModeMatches
	}

	queryFileIDs, err := e.resolveCloneTargets(req.Paths)
	if err != nil {
		return nil, err
	}
	if len(queryFileIDs) == 0 {
		return &CloneMatchesResponse{ListOutput: ListOutput{Diagnostics: &Diagnostics{Reason: "selector_unresolved"}}}, nil
	}

	files, err := e.fileMap()
	if err != nil {
		return nil, err
	}

	totals := map[int64]int{}
	shared := map[[2]int64]int{}
	for _, fileID := range queryFileIDs {
		fps, ferr := e.fingerprints.ListByFile(fileID)
		if ferr != nil {
			return nil, ferr
		}
		totals[fileID] = len(fps)
		for _, fp := range fps {
			siblings, serr := e.fingerprints.ListByHash(fp.WindowHash)
			if serr != nil {
				return nil, serr
			}
			for _, sib := range siblings {
				if sib.FileID == fileID {
					continue
				}
				key := pairKey(fileID, sib.FileID)
				shared[key]++
			}
		}
	}

	for pair := range shared {
		for _, id := range pair {
			if _, ok := totals[id]; !ok {
				fps, ferr := e.fingerprints.ListByFile(id)
				if ferr != nil {
					return nil, ferr
				}
				totals[id] = len(fps)
			}
		}
	}

	allMatches := make([]CloneMatch, 0, len(shared))
	for pair, count := range shared {
		a, b := files[pair[0]], files[pair[1]]
		if a == nil || b == nil {
			continue
		}
		denom := totals[pair[0]]
		if totals[pair[1]] > denom {
			denom = totals[pair[1]]
		}
		if denom == 0 {
			continue
		}
		sim := float64(count) / float64(denom)
		allMatches = append(allMatches, CloneMatch{FileA: a, FileB: b, Similarity: sim, SharedWindows: count})
	}
	sort.SliceStable(allMatches, func(i, j int) bool { return allMatches[i].Similarity > allMatches[j].Similarity })

	passing := filterBySimilarity(allMatches, req.MinSimilarity)
	analysis := CloneAnalysis{
		CandidateFiles:      len(allMatches),
		FilteredByThreshold: len(allMatches) - len(passing),
	}
	if len(passing) < 3 {
		analysis.SuggestedMinSimilarity = suggestThreshold(allMatches, 5, 0.1)
	}

	if req.Mode == CloneModeHotspots {
		hotspots := aggregateHotspots(passing)
		start, end, out := page(len(hotspots), req.Offset, req.Limit)
		out.Total = len(hotspots)
		return &CloneMatchesResponse{ListOutput: out, Hotspots: hotspots[start:end], Analysis: analysis}, nil
	}

	start, end, out := page(len(passing), req.Offset, req.Limit)
	return &CloneMatchesResponse{ListOutput: out, Matches: passing[start:end], Analysis: analysis}, nil
}

func (e *Engine) resolveCloneTargets(paths []string) ([]int64, error) {
	var ids []int64
	for _, p := range paths {
		f, err := e.files.GetByPath(p)
		if err != nil {
			return nil, err
		}
		if f != nil {
			ids = append(ids, f.ID)
		}
	}
	return ids, nil
}

func pairKey(a, b int64) [2]int64 {
	if a < b {
		return [2]int64{a, b}
	}
	return [2]int64{b, a}
}

func filterBySimilarity(matches []CloneMatch, threshold float64) []CloneMatch {
	out := make([]CloneMatch, 0, len(matches))
	for _, m := range matches {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}
	return out
}

// suggestThreshold finds the highest similarity threshold at or above
// floor that yields at least wantCount results, for the adaptive
// fallback when the caller's threshold is too strict. With fewer than
// wantCount matches it returns the threshold that keeps all of them.
func suggestThreshold(matches []CloneMatch, wantCount int, floor float64) float64 {
	if len(matches) == 0 {
		return floor
	}
	if wantCount > len(matches) {
		wantCount = len(matches)
	}
	sim := matches[wantCount-1].Similarity
	if sim < floor {
		return floor
	}
	return sim
}

func aggregateHotspots(matches []CloneMatch) []CloneHotspot {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, m := range matches {
		dirs := map[string]bool{filepath.Dir(m.FileA.Path): true, filepath.Dir(m.FileB.Path): true}
		for dir := range dirs {
			sums[dir] += m.Similarity
			counts[dir]++
		}
	}
	out := make([]CloneHotspot, 0, len(counts))
	for dir, n := range counts {
		out = append(out, CloneHotspot{Directory: dir, MatchCount: n, AvgSimilarity: sums[dir] / float64(n)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchCount != out[j].MatchCount {
			return out[i].MatchCount > out[j].MatchCount
		}
		return out[i].Directory < out[j].Directory
	})
	return out
}
