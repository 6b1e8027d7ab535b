package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var definitionsCmd = &cobra.Command{
	Use:   "definitions <selector>",
	Short: "List the entities a selector resolves to",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine := mustQueryEngine()
		resp, err := engine.SymbolDefinitions(query.DefinitionsRequest{
			ListInput: listInput(),
			Selector:  args[0],
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		printJSON(resp)
	},
}
