package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var setupCodexReplace bool

var setupCodexCmd = &cobra.Command{
	Use:   "setup-codex",
	Short: "Register lumora as an MCP server in Codex CLI's config.toml",
	Long: `Appends a [mcp_servers.lumora] table to ~/.codex/config.toml pointing at
this binary's resolved path and the "mcp" subcommand. --replace rewrites
an existing lumora entry instead of refusing to touch the file.`,
	Run: runSetupCodex,
}

func init() {
	setupCodexCmd.Flags().BoolVar(&setupCodexReplace, "replace", false, "replace an existing lumora entry instead of erroring")
	rootCmd.AddCommand(setupCodexCmd)
}

const codexTableMarker = "[mcp_servers.lumora]"

func runSetupCodex(cmd *cobra.Command, args []string) {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	lumoraPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if resolved, err := filepath.EvalSymlinks(lumoraPath); err == nil {
		lumoraPath = resolved
	}

	configDir := filepath.Join(home, ".codex")
	configPath := filepath.Join(configDir, "config.toml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	existing, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	content := string(existing)

	if strings.Contains(content, codexTableMarker) {
		if !setupCodexReplace {
			fmt.Fprintf(os.Stderr, "error: %s already has a %s table; pass --replace to overwrite it\n", configPath, codexTableMarker)
			os.Exit(2)
		}
		content = removeCodexTable(content)
	}

	table := fmt.Sprintf("\n%s\ncommand = %q\nargs = [\"mcp\"]\n", codexTableMarker, lumoraPath)
	content = strings.TrimRight(content, "\n") + table

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("registered lumora in %s\n", configPath)
}

// removeCodexTable strips a previously written [mcp_servers.lumora]
// table (the marker line plus its key = value lines) from content.
func removeCodexTable(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	inTable := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == codexTableMarker {
			inTable = true
			continue
		}
		if inTable {
			if strings.HasPrefix(trimmed, "[") || trimmed == "" {
				inTable = false
			} else {
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
