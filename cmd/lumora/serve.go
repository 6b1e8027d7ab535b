package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quintant/lumora/internal/watcher"
)

var serveFullFirst bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the file-watcher daemon, keeping the graph store incrementally in sync",
	Long: `Starts a long-running process that watches the repository for filesystem
changes and re-indexes the affected files as they happen, debouncing
bursts of edits into single batches.

--full-first runs a full index before the watcher starts, useful the
first time serve runs against a repository with no graph store yet.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveFullFirst, "full-first", false, "run a full index before watching begins")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	logger := newCLILogger(false)
	cfg := loadConfig(repoRoot, logger)

	db, err := openStore(repoRoot, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ix := newIndexer(repoRoot, cfg, db, logger)

	if serveFullFirst {
		if _, err := ix.RunFull(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "error: initial full index failed: %v\n", err)
			os.Exit(2)
		}
	}

	wcfg := watcher.Config{
		Enabled:      cfg.Watcher.Enabled,
		DebounceMs:   cfg.Watcher.DebounceMs,
		QueueDepth:   cfg.Watcher.QueueDepth,
		StateDirName: cfg.StateDir,
		ExcludeDirs:  watcher.DefaultConfig().ExcludeDirs,
		ExcludeFiles: watcher.DefaultConfig().ExcludeFiles,
	}

	onChange := func(paths []string) {
		logger.Info("re-indexing changed paths", map[string]interface{}{"count": len(paths)})
		if _, err := ix.RunIncrementalPaths(context.Background(), paths); err != nil {
			logger.Error("incremental re-index failed", map[string]interface{}{"error": err.Error()})
		}
	}
	onOverflow := func() {
		logger.Warn("watch queue overflowed, falling back to a full incremental scan", nil)
		if _, err := ix.RunIncremental(context.Background()); err != nil {
			logger.Error("fallback incremental index failed", map[string]interface{}{"error": err.Error()})
		}
	}

	w, err := watcher.New(wcfg, repoRoot, logger, onChange, onOverflow)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("watching for changes", map[string]interface{}{"root": repoRoot})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down", nil)
	if err := w.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "error stopping watcher: %v\n", err)
	}
}
