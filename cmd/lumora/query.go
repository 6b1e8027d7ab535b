package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a read-only graph query against the current repository's store",
}

var (
	queryLimit     int
	queryOffset    int
	queryOrder     string
	queryFileGlob  string
	queryLanguage  string
)

func init() {
	rootCmd.AddCommand(queryCmd)
	for _, c := range []*cobra.Command{definitionsCmd, referencesCmd, callersCmd, cloneMatchesCmd, discoverCmd} {
		c.Flags().IntVar(&queryLimit, "limit", 0, "max items to return (0 uses the configured default)")
		c.Flags().IntVar(&queryOffset, "offset", 0, "items to skip before the first returned result")
		c.Flags().StringVar(&queryOrder, "order", "", "score_desc, line_asc, or line_desc")
		c.Flags().StringVar(&queryFileGlob, "file-glob", "", "restrict results to files matching this glob")
		c.Flags().StringVar(&queryLanguage, "language", "", "restrict results to this extract.Language")
		queryCmd.AddCommand(c)
	}
	queryCmd.AddCommand(depPathCmd, sliceCmd)
}

func listInput() query.ListInput {
	return query.ListInput{
		Limit:    queryLimit,
		Offset:   queryOffset,
		Order:    query.Order(queryOrder),
		FileGlob: queryFileGlob,
		Language: queryLanguage,
	}
}

// mustQueryEngine opens the store read-only-in-spirit (the engine never
// mutates it) and builds an Engine, or exits with the I/O exit code.
func mustQueryEngine() *query.Engine {
	repoRoot := mustGetRepoRoot()
	logger := newCLILogger(true)
	cfg := loadConfig(repoRoot, logger)

	db, err := openStore(repoRoot, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	return newEngine(repoRoot, cfg, db)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
