package query

import (
	"sort"

	"github.com/quintant/lumora/internal/storage"
)

// DependencyPathRequest is the dependency_path input.
type DependencyPathRequest struct {
	SelectorA string
	SelectorB string
	MaxDepth  int
}

// PathHop is one edge of a resolved dependency path, annotated with the
// kinds of FileDep edge(s) that justify the hop.
type PathHop struct {
	From  *storage.File `json:"from"`
	To    *storage.File `json:"to"`
	Kinds []string      `json:"kinds"`
}

// DependencyPathResponse is the dependency_path output.
type DependencyPathResponse struct {
	Path        []*storage.File `json:"path,omitempty"`
	Hops        []PathHop       `json:"hops,omitempty"`
	Diagnostics *Diagnostics    `json:"diagnostics,omitempty"`
}

// DependencyPath resolves both selectors to sets of Files, preferring
// file: selectors (symbol selectors resolve to the file(s) defining
// them), then finds the shortest FileDep path between any A-file and
// any B-file via a multi-source BFS that follows FileDep edges in both
// directions, breaking ties on the
// lexicographically smaller path at the first point of divergence.
func (e *Engine) DependencyPath(req DependencyPathRequest) (*DependencyPathResponse, error) {
	if req.MaxDepth <= 0 {
		req.MaxDepth = 10
	}

	selA, err := ParseSelector(req.SelectorA)
	if err != nil {
		return nil, err
	}
	selB, err := ParseSelector(req.SelectorB)
	if err != nil {
		return nil, err
	}

	filesA, err := ResolveFiles(e.files, e.entities, selA)
	if err != nil {
		return nil, err
	}
	filesB, err := ResolveFiles(e.files, e.entities, selB)
	if err != nil {
		return nil, err
	}
	if len(filesA) == 0 || len(filesB) == 0 {
		return &DependencyPathResponse{Diagnostics: &Diagnostics{Reason: "selector_unresolved"}}, nil
	}

	targets := map[int64]bool{}
	for _, f := range filesB {
		targets[f.ID] = true
	}

	starts := make([]int64, 0, len(filesA))
	for _, f := range filesA {
		starts = append(starts, f.ID)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	bestPath, err := e.shortestPath(starts, targets, req.MaxDepth)
	if err != nil {
		return nil, err
	}
	if bestPath == nil {
		return &DependencyPathResponse{Diagnostics: &Diagnostics{Reason: "no_path_within_max_depth"}}, nil
	}

	files, err := e.fileMap()
	if err != nil {
		return nil, err
	}

	resp := &DependencyPathResponse{}
	for _, id := range bestPath {
		resp.Path = append(resp.Path, files[id])
	}
	for i := 0; i+1 < len(bestPath); i++ {
		kinds, kerr := e.hopKinds(bestPath[i], bestPath[i+1])
		if kerr != nil {
			return nil, kerr
		}
		resp.Hops = append(resp.Hops, PathHop{From: files[bestPath[i]], To: files[bestPath[i+1]], Kinds: kinds})
	}
	return resp, nil
}

// shortestPath runs BFS from every start node simultaneously (an
// effective single-source BFS over a synthetic super-source) until a
// target is reached, then reconstructs the path. Among equal-length
// shortest paths, the predecessor chosen at each node is always the
// lexicographically smallest frontier id, which yields the
// lexicographically smallest path at the first diverging node.
func (e *Engine) shortestPath(starts []int64, targets map[int64]bool, maxDepth int) ([]int64, error) {
	visited := map[int64]bool{}
	pred := map[int64]int64{}
	var frontier []int64
	for _, s := range starts {
		if !visited[s] {
			visited[s] = true
			frontier = append(frontier, s)
		}
		if targets[s] {
			return []int64{s}, nil
		}
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		sort.Slice(frontier, func(i, j int) bool { return frontier[i] < frontier[j] })
		var next []int64
		for _, node := range frontier {
			neighbors, err := e.neighbors(node)
			if err != nil {
				return nil, err
			}
			sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				pred[n] = node
				if targets[n] {
					return reconstructPath(pred, starts, n), nil
				}
				next = append(next, n)
			}
		}
		frontier = next
	}
	return nil, nil
}

func reconstructPath(pred map[int64]int64, starts []int64, target int64) []int64 {
	startSet := map[int64]bool{}
	for _, s := range starts {
		startSet[s] = true
	}
	path := []int64{target}
	cur := target
	for !startSet[cur] {
		p, ok := pred[cur]
		if !ok {
			break
		}
		path = append([]int64{p}, path...)
		cur = p
	}
	return path
}

func (e *Engine) neighbors(fileID int64) ([]int64, error) {
	out, err := e.fileDeps.ListFrom(fileID)
	if err != nil {
		return nil, err
	}
	in, err := e.fileDeps.ListTo(fileID)
	if err != nil {
		return nil, err
	}
	seen := map[int64]bool{}
	var ids []int64
	for _, d := range out {
		if !seen[d.ToFileID] {
			seen[d.ToFileID] = true
			ids = append(ids, d.ToFileID)
		}
	}
	for _, d := range in {
		if !seen[d.FromFileID] {
			seen[d.FromFileID] = true
			ids = append(ids, d.FromFileID)
		}
	}
	return ids, nil
}

func (e *Engine) hopKinds(fromID, toID int64) ([]string, error) {
	deps, err := e.fileDeps.ListFrom(fromID)
	if err != nil {
		return nil, err
	}
	var kinds []string
	for _, d := range deps {
		if d.ToFileID == toID {
			kinds = append(kinds, string(d.Kind))
		}
	}
	if len(kinds) > 0 {
		return kinds, nil
	}
	// The hop may only exist in the reverse direction (B depends on A).
	rdeps, err := e.fileDeps.ListFrom(toID)
	if err != nil {
		return nil, err
	}
	for _, d := range rdeps {
		if d.ToFileID == fromID {
			kinds = append(kinds, string(d.Kind))
		}
	}
	return kinds, nil
}
