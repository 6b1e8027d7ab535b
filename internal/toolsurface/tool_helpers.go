package toolsurface

import "github.com/quintant/lumora/internal/query"

func argString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func argBool(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func argInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func argFloat(args map[string]interface{}, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}

func argStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// argListInput builds the shared paging/filter envelope every list
// operation's arguments carry.
func argListInput(args map[string]interface{}) query.ListInput {
	return query.ListInput{
		Limit:    argInt(args, "limit", 0),
		Offset:   argInt(args, "offset", 0),
		Order:    query.Order(argString(args, "order")),
		FileGlob: argString(args, "file_glob"),
		Language: argString(args, "language"),
	}
}
