package query

import (
	"sort"
	"strings"

	"github.com/quintant/lumora/internal/storage"
)

// DiscoverRequest is the selector_discover input.
type DiscoverRequest struct {
	ListInput
	Query      string
	Fuzzy      bool
	EntityType string
}

// MatchTier ranks how a candidate matched the query, strongest first.
type MatchTier int

const (
	TierExact MatchTier = iota
	TierPrefix
	TierSubstring
	TierSubsequence
	TierNone
)

// Candidate is one ranked result of selector_discover.
type Candidate struct {
	Selector    string  `json:"selector"`
	Entity      *storage.Entity `json:"entity,omitempty"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// DiscoverResponse is the selector_discover output.
type DiscoverResponse struct {
	ListOutput
	Items []Candidate `json:"items"`
}

// SelectorDiscover ranks entities whose name relates to query by tier
// (exact > prefix > substring > subsequence, when fuzzy), tie-breaking
// by project-locality then by how many definitions share the name
// (fewer first, since a unique name makes a more useful selector).
func (e *Engine) SelectorDiscover(req DiscoverRequest) (*DiscoverResponse, error) {
	def, max := e.limits()
	req.normalize(def, max)

	all, err := e.entities.AllNames()
	if err != nil {
		return nil, err
	}
	files, err := e.fileMap()
	if err != nil {
		return nil, err
	}

	nameCount := map[string]int{}
	for _, ent := range all {
		nameCount[ent.Name]++
	}

	query := req.Query
	type scored struct {
		ent  *storage.Entity
		tier MatchTier
	}
	var hits []scored
	for _, ent := range all {
		f := files[ent.FileID]
		if f == nil {
			continue
		}
		if !matchesFilters(f.Path, f.Language, req.FileGlob, req.Language) {
			continue
		}
		if req.EntityType != "" && ent.Kind != req.EntityType {
			continue
		}
		tier := matchTier(ent.Name, query, req.Fuzzy)
		if tier == TierNone {
			continue
		}
		hits = append(hits, scored{ent: ent, tier: tier})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].tier != hits[j].tier {
			return hits[i].tier < hits[j].tier
		}
		fi, fj := files[hits[i].ent.FileID], files[hits[j].ent.FileID]
		pi, pj := !isVendoredPath(fi.Path), !isVendoredPath(fj.Path)
		if pi != pj {
			return pi
		}
		return nameCount[hits[i].ent.Name] < nameCount[hits[j].ent.Name]
	})

	items := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		items = append(items, Candidate{
			Selector:    "symbol:" + h.ent.Name,
			Entity:      h.ent,
			Score:       tierScore(h.tier),
			Explanation: tierExplanation(h.tier, h.ent.Name, query),
		})
	}

	start, end, out := page(len(items), req.Offset, req.Limit)
	return &DiscoverResponse{ListOutput: out, Items: items[start:end]}, nil
}

func matchTier(name, query string, fuzzy bool) MatchTier {
	if name == query {
		return TierExact
	}
	lname, lquery := strings.ToLower(name), strings.ToLower(query)
	if lname == lquery {
		return TierExact
	}
	if strings.HasPrefix(lname, lquery) {
		return TierPrefix
	}
	if strings.Contains(lname, lquery) {
		return TierSubstring
	}
	if fuzzy && isSubsequence(lquery, lname) {
		return TierSubsequence
	}
	return TierNone
}

// isSubsequence reports whether every rune of query appears in name in
// order, not necessarily contiguous.
func isSubsequence(query, name string) bool {
	if query == "" {
		return true
	}
	qi := 0
	qr := []rune(query)
	for _, r := range name {
		if qr[qi] == r {
			qi++
			if qi == len(qr) {
				return true
			}
		}
	}
	return false
}

func tierScore(tier MatchTier) float64 {
	switch tier {
	case TierExact:
		return 4
	case TierPrefix:
		return 3
	case TierSubstring:
		return 2
	case TierSubsequence:
		return 1
	default:
		return 0
	}
}

func tierExplanation(tier MatchTier, name, query string) string {
	switch tier {
	case TierExact:
		return "exact match for " + query
	case TierPrefix:
		return name + " starts with " + query
	case TierSubstring:
		return name + " contains " + query
	case TierSubsequence:
		return name + " matches " + query + " as a subsequence"
	default:
		return ""
	}
}
