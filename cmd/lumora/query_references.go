package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var (
	referencesCallsOnly bool
	referencesDedup     bool
	referencesTopFiles  bool
)

var referencesCmd = &cobra.Command{
	Use:   "references <selector>",
	Short: "List reference sites for a symbol",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine := mustQueryEngine()
		resp, err := engine.SymbolReferences(query.ReferencesRequest{
			ListInput: listInput(),
			Selector:  args[0],
			CallsOnly: referencesCallsOnly,
			Dedup:     referencesDedup,
			TopFiles:  referencesTopFiles,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		printJSON(resp)
	},
}

func init() {
	referencesCmd.Flags().BoolVar(&referencesCallsOnly, "calls-only", false, "only include call-site references")
	referencesCmd.Flags().BoolVar(&referencesDedup, "dedup", false, "drop references sharing a (file, line)")
	referencesCmd.Flags().BoolVar(&referencesTopFiles, "top-files", false, "include a per-file reference count summary")
}
