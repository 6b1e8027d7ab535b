package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var (
	sliceDepth                    int
	sliceMaxNeighbors             int
	sliceDedup                    bool
	sliceSuppressLowSignalRepeats bool
	sliceLowSignalNameCap         int
	slicePreferProjectSymbols     bool
)

var sliceCmd = &cobra.Command{
	Use:   "slice <file> <line>",
	Short: "Build a bounded neighborhood of entities around a source location",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		line, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: line must be an integer: %v\n", err)
			os.Exit(2)
		}

		engine := mustQueryEngine()
		resp, err := engine.MinimalSlice(query.SliceRequest{
			File:                     args[0],
			Line:                     line,
			Depth:                    sliceDepth,
			MaxNeighbors:             sliceMaxNeighbors,
			Dedup:                    sliceDedup,
			SuppressLowSignalRepeats: sliceSuppressLowSignalRepeats,
			LowSignalNameCap:         sliceLowSignalNameCap,
			PreferProjectSymbols:     slicePreferProjectSymbols,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		printJSON(resp)
	},
}

func init() {
	sliceCmd.Flags().IntVar(&sliceDepth, "depth", 2, "BFS hop bound around the anchor entity")
	sliceCmd.Flags().IntVar(&sliceMaxNeighbors, "max-neighbors", 40, "cap on returned neighbors in total")
	sliceCmd.Flags().BoolVar(&sliceDedup, "dedup", true, "drop duplicate neighbors")
	sliceCmd.Flags().BoolVar(&sliceSuppressLowSignalRepeats, "suppress-low-signal-repeats", true, "cap repeats of ubiquitous names")
	sliceCmd.Flags().IntVar(&sliceLowSignalNameCap, "low-signal-name-cap", 1, "max occurrences of one name before suppression kicks in")
	sliceCmd.Flags().BoolVar(&slicePreferProjectSymbols, "prefer-project-symbols", true, "rank project-local neighbors ahead of vendored ones")
}
