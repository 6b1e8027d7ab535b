package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var printMCPConfigCmd = &cobra.Command{
	Use:   "print-mcp-config",
	Short: "Print an MCP server config block for registering lumora with an AI coding tool",
	Long: `Prints the {"mcpServers": {...}} JSON block most MCP clients (Claude
Code, Cursor, Windsurf, Claude Desktop) expect in their config file, with
"lumora" pointed at this binary's resolved path and the "mcp" subcommand.`,
	Run: runPrintMCPConfig,
}

func init() {
	rootCmd.AddCommand(printMCPConfigCmd)
}

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func runPrintMCPConfig(cmd *cobra.Command, args []string) {
	lumoraPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if resolved, err := filepath.EvalSymlinks(lumoraPath); err == nil {
		lumoraPath = resolved
	}

	config := map[string]interface{}{
		"mcpServers": map[string]mcpServerEntry{
			"lumora": {
				Command: lumoraPath,
				Args:    []string{"mcp"},
			},
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
