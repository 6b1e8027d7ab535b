package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var (
	discoverFuzzy      bool
	discoverEntityType string
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Rank candidate selectors matching a partial or fuzzy name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine := mustQueryEngine()
		resp, err := engine.SelectorDiscover(query.DiscoverRequest{
			ListInput:  listInput(),
			Query:      args[0],
			Fuzzy:      discoverFuzzy,
			EntityType: discoverEntityType,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		printJSON(resp)
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverFuzzy, "fuzzy", false, "allow subsequence matches, not just prefix/substring")
	discoverCmd.Flags().StringVar(&discoverEntityType, "entity-type", "", "restrict results to this entity kind")
}
