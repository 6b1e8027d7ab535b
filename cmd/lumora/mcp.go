package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lumoramcp "github.com/quintant/lumora/internal/toolsurface"
)

var mcpAutoIndex bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP stdio server exposing lumora's query operations as tools",
	Long: `Starts a JSON-RPC 2.0 server over stdio implementing the MCP tools/list
and tools/call methods. Exposes index_repository, symbol_definitions,
symbol_references, symbol_callers, dependency_path, minimal_slice,
clone_matches, and selector_discover as tools.

This command is typically launched by an MCP client (Claude Code,
Cursor, Codex, ...) rather than run interactively.`,
	Run: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpAutoIndex, "auto-index", true, "run an incremental index before serving the first request")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	// stdout is reserved for the JSON-RPC stream; logs go to stderr.
	logger := newStderrLogger()
	cfg := loadConfig(repoRoot, logger)

	db, err := openStore(repoRoot, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ix := newIndexer(repoRoot, cfg, db, logger)
	engine := newEngine(repoRoot, cfg, db)

	server := lumoramcp.NewServer(engine, ix, logger, mcpAutoIndex)
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
