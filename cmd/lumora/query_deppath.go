package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var depPathMaxDepth int

var depPathCmd = &cobra.Command{
	Use:   "deppath <selector-a> <selector-b>",
	Short: "Find the shortest FileDep path between two files",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		engine := mustQueryEngine()
		resp, err := engine.DependencyPath(query.DependencyPathRequest{
			SelectorA: args[0],
			SelectorB: args[1],
			MaxDepth:  depPathMaxDepth,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		printJSON(resp)
	},
}

func init() {
	depPathCmd.Flags().IntVar(&depPathMaxDepth, "max-depth", 10, "maximum hop count to search before giving up")
}
