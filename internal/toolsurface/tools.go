package toolsurface

// Tool describes one entry in the tools/list response.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolHandler executes one tool call against the server's engine/indexer.
type ToolHandler func(s *Server, args map[string]interface{}) (interface{}, error)

func (s *Server) registerTools() {
	s.tools = map[string]ToolHandler{
		"index_repository":   handleIndexRepository,
		"symbol_definitions": handleSymbolDefinitions,
		"symbol_references":  handleSymbolReferences,
		"symbol_callers":     handleSymbolCallers,
		"dependency_path":    handleDependencyPath,
		"minimal_slice":      handleMinimalSlice,
		"clone_matches":      handleCloneMatches,
		"selector_discover":  handleSelectorDiscover,
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func selectorProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func pagingProps(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"limit":      map[string]interface{}{"type": "integer", "description": "max items to return"},
		"offset":     map[string]interface{}{"type": "integer", "description": "items to skip"},
		"order":      map[string]interface{}{"type": "string", "enum": []string{"score_desc", "line_asc", "line_desc"}},
		"file_glob":  map[string]interface{}{"type": "string", "description": "restrict results to files matching this glob"},
		"language":   map[string]interface{}{"type": "string", "description": "restrict results to this language"},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func toolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "index_repository",
			Description: "Scan the repository and commit its syntactic facts to the graph store, full or incremental",
			InputSchema: objectSchema(map[string]interface{}{
				"mode":        map[string]interface{}{"type": "string", "enum": []string{"full", "incremental"}, "default": "incremental"},
				"json_report": map[string]interface{}{"type": "boolean", "default": true},
			}),
		},
		{
			Name:        "symbol_definitions",
			Description: "List the entities a selector (file:, symbol:, symbol_name:<lang>:, or bare name/path) resolves to",
			InputSchema: objectSchema(pagingProps(map[string]interface{}{
				"selector": selectorProp("file:, symbol:, or symbol_name:<lang>: selector"),
			}), "selector"),
		},
		{
			Name:        "symbol_references",
			Description: "List reference sites for a symbol, optionally restricted to calls and deduplicated by (file, line)",
			InputSchema: objectSchema(pagingProps(map[string]interface{}{
				"selector":   selectorProp("symbol selector"),
				"calls_only": map[string]interface{}{"type": "boolean", "default": false},
				"dedup":      map[string]interface{}{"type": "boolean", "default": false},
				"top_files":  map[string]interface{}{"type": "boolean", "default": false},
			}), "selector"),
		},
		{
			Name:        "symbol_callers",
			Description: "List entities calling a symbol, resolved when the call site has a known caller entity",
			InputSchema: objectSchema(pagingProps(map[string]interface{}{
				"selector": selectorProp("symbol selector"),
				"dedup":    map[string]interface{}{"type": "boolean", "default": false},
			}), "selector"),
		},
		{
			Name:        "dependency_path",
			Description: "Find the shortest FileDep path between two files, bounded by max_depth",
			InputSchema: objectSchema(map[string]interface{}{
				"selector_a": selectorProp("file selector for the start of the path"),
				"selector_b": selectorProp("file selector for the end of the path"),
				"max_depth":  map[string]interface{}{"type": "integer", "default": 10},
			}, "selector_a", "selector_b"),
		},
		{
			Name:        "minimal_slice",
			Description: "Build a bounded, ranked neighborhood of entities (callees, callers, references, imports) around a source location",
			InputSchema: objectSchema(map[string]interface{}{
				"file":                        map[string]interface{}{"type": "string"},
				"line":                        map[string]interface{}{"type": "integer"},
				"depth":                       map[string]interface{}{"type": "integer", "default": 2},
				"max_neighbors":               map[string]interface{}{"type": "integer", "default": 40},
				"dedup":                       map[string]interface{}{"type": "boolean", "default": true},
				"suppress_low_signal_repeats": map[string]interface{}{"type": "boolean", "default": true},
				"low_signal_name_cap":         map[string]interface{}{"type": "integer", "default": 1},
				"prefer_project_symbols":      map[string]interface{}{"type": "boolean", "default": true},
			}, "file", "line"),
		},
		{
			Name:        "clone_matches",
			Description: "Find files sharing duplicated code windows with the given paths, or aggregate matches into directory hotspots",
			InputSchema: objectSchema(pagingProps(map[string]interface{}{
				"paths":          map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"mode":           map[string]interface{}{"type": "string", "enum": []string{"matches", "hotspots"}, "default": "matches"},
				"min_similarity": map[string]interface{}{"type": "number", "default": 0.35},
			}), "paths"),
		},
		{
			Name:        "selector_discover",
			Description: "Rank candidate selectors matching a partial or fuzzy name",
			InputSchema: objectSchema(pagingProps(map[string]interface{}{
				"query":       map[string]interface{}{"type": "string"},
				"fuzzy":       map[string]interface{}{"type": "boolean", "default": false},
				"entity_type": map[string]interface{}{"type": "string"},
			}), "query"),
		},
	}
}
