package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var (
	cloneMode          string
	cloneMinSimilarity float64
)

var cloneMatchesCmd = &cobra.Command{
	Use:   "clones <path> [path...]",
	Short: "Find files sharing duplicated code windows with the given paths",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode := query.CloneModeMatches
		if cloneMode != "" {
			mode = query.CloneMode(strings.ToLower(cloneMode))
		}

		engine := mustQueryEngine()
		resp, err := engine.CloneMatches(query.CloneMatchesRequest{
			ListInput:     listInput(),
			Paths:         args,
			Mode:          mode,
			MinSimilarity: cloneMinSimilarity,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		printJSON(resp)
	},
}

func init() {
	cloneMatchesCmd.Flags().StringVar(&cloneMode, "mode", "matches", "matches or hotspots")
	cloneMatchesCmd.Flags().Float64Var(&cloneMinSimilarity, "min-similarity", 0, "similarity threshold (0 uses the configured default)")
}
