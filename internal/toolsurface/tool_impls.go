package toolsurface

import (
	"context"
	"fmt"
	"strings"

	"github.com/quintant/lumora/internal/query"
)

func handleIndexRepository(s *Server, args map[string]interface{}) (interface{}, error) {
	if s.indexer == nil {
		return nil, fmt.Errorf("no indexer wired into this server")
	}

	mode := strings.ToLower(argString(args, "mode"))
	var (
		counters interface{}
		err      error
	)
	if mode == "full" {
		counters, err = s.indexer.RunFull(context.Background())
	} else {
		counters, err = s.indexer.RunIncremental(context.Background())
	}
	if err != nil {
		return nil, err
	}
	return counters, nil
}

func handleSymbolDefinitions(s *Server, args map[string]interface{}) (interface{}, error) {
	return s.engine.SymbolDefinitions(query.DefinitionsRequest{
		ListInput: argListInput(args),
		Selector:  argString(args, "selector"),
	})
}

func handleSymbolReferences(s *Server, args map[string]interface{}) (interface{}, error) {
	return s.engine.SymbolReferences(query.ReferencesRequest{
		ListInput: argListInput(args),
		Selector:  argString(args, "selector"),
		CallsOnly: argBool(args, "calls_only", false),
		Dedup:     argBool(args, "dedup", false),
		TopFiles:  argBool(args, "top_files", false),
	})
}

func handleSymbolCallers(s *Server, args map[string]interface{}) (interface{}, error) {
	return s.engine.SymbolCallers(query.CallersRequest{
		ListInput: argListInput(args),
		Selector:  argString(args, "selector"),
		Dedup:     argBool(args, "dedup", false),
	})
}

func handleDependencyPath(s *Server, args map[string]interface{}) (interface{}, error) {
	return s.engine.DependencyPath(query.DependencyPathRequest{
		SelectorA: argString(args, "selector_a"),
		SelectorB: argString(args, "selector_b"),
		MaxDepth:  argInt(args, "max_depth", 10),
	})
}

func handleMinimalSlice(s *Server, args map[string]interface{}) (interface{}, error) {
	return s.engine.MinimalSlice(query.SliceRequest{
		File:                     argString(args, "file"),
		Line:                     argInt(args, "line", 0),
		Depth:                    argInt(args, "depth", 2),
		MaxNeighbors:             argInt(args, "max_neighbors", 40),
		Dedup:                    argBool(args, "dedup", true),
		SuppressLowSignalRepeats: argBool(args, "suppress_low_signal_repeats", true),
		LowSignalNameCap:         argInt(args, "low_signal_name_cap", 1),
		PreferProjectSymbols:     argBool(args, "prefer_project_symbols", true),
	})
}

func handleCloneMatches(s *Server, args map[string]interface{}) (interface{}, error) {
	mode := query.CloneModeMatches
	if m := strings.ToLower(argString(args, "mode")); m == string(query.CloneModeHotspots) {
		mode = query.CloneModeHotspots
	}
	return s.engine.CloneMatches(query.CloneMatchesRequest{
		ListInput:     argListInput(args),
		Paths:         argStringSlice(args, "paths"),
		Mode:          mode,
		MinSimilarity: argFloat(args, "min_similarity", 0),
	})
}

func handleSelectorDiscover(s *Server, args map[string]interface{}) (interface{}, error) {
	return s.engine.SelectorDiscover(query.DiscoverRequest{
		ListInput:  argListInput(args),
		Query:      argString(args, "query"),
		Fuzzy:      argBool(args, "fuzzy", false),
		EntityType: argString(args, "entity_type"),
	})
}
