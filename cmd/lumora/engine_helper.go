package main

import (
	"fmt"
	"os"

	"github.com/quintant/lumora/internal/config"
	"github.com/quintant/lumora/internal/extract"
	"github.com/quintant/lumora/internal/index"
	"github.com/quintant/lumora/internal/logging"
	"github.com/quintant/lumora/internal/query"
	"github.com/quintant/lumora/internal/storage"
)

// mustGetRepoRoot returns the current working directory or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// loadConfig loads .lumora/config.yaml relative to repoRoot, falling
// back to defaults and logging a warning when the file is missing or
// malformed.
func loadConfig(repoRoot string, logger *logging.Logger) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		logger.Warn("failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return config.DefaultConfig()
	}
	return cfg
}

// openStore opens the graph store at cfg's state path under repoRoot.
func openStore(repoRoot string, cfg *config.Config, logger *logging.Logger) (*storage.DB, error) {
	return storage.Open(cfg.StatePath(repoRoot), logger)
}

// newRegistry wires the process-wide extractor behind extension dispatch.
func newRegistry() *extract.Registry {
	return extract.NewRegistry(extract.NewTreeSitterExtractor())
}

// newIndexer builds an Indexer against an already-open store.
func newIndexer(repoRoot string, cfg *config.Config, db *storage.DB, logger *logging.Logger) *index.Indexer {
	return index.NewIndexer(repoRoot, cfg.StatePath(repoRoot), db, newRegistry(), cfg, logger)
}

// newEngine builds a query.Engine against an already-open store.
func newEngine(repoRoot string, cfg *config.Config, db *storage.DB) *query.Engine {
	return query.NewEngine(repoRoot, db, cfg)
}

// newCLILogger creates a logger for CLI output; json selects JSONFormat
// over the default human-readable one.
func newCLILogger(jsonFormat bool) *logging.Logger {
	format := logging.HumanFormat
	if jsonFormat {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{Format: format, Level: logging.InfoLevel})
}

// newStderrLogger creates a logger writing to stderr, for commands like
// mcp where stdout is reserved for a wire protocol.
func newStderrLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.InfoLevel, Output: os.Stderr})
}
