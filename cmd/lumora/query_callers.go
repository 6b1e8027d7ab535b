package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var callersDedup bool

var callersCmd = &cobra.Command{
	Use:   "callers <selector>",
	Short: "List call sites resolving to a symbol",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine := mustQueryEngine()
		resp, err := engine.SymbolCallers(query.CallersRequest{
			ListInput: listInput(),
			Selector:  args[0],
			Dedup:     callersDedup,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		printJSON(resp)
	},
}

func init() {
	callersCmd.Flags().BoolVar(&callersDedup, "dedup", false, "drop callers sharing a (file, line)")
}
