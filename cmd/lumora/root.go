package main

import (
	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "lumora",
	Short: "Lumora - local semantic code graph engine",
	Long: `Lumora parses a repository into a graph of entities and relations stored
in an embedded database under .lumora/, and answers graph queries
(definitions, references, callers, dependency paths, minimal slices,
clone matches, selector discovery) for AI coding agents, either
directly from the CLI or over an MCP stdio server.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("lumora version {{.Version}}\n")
}
