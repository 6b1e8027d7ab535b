// Package watcher keeps the graph store in sync with the working tree:
// it watches the repository for filesystem changes, debounces bursts
// into batches, and hands each batch to a re-indexing callback.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/quintant/lumora/internal/logging"
)

// EventType classifies a filesystem change.
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one filesystem change. Path is relative to the watch root,
// slash-separated, and already filtered against the exclude globs.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// ChangeHandler is invoked once per debounced batch with the set of
// changed paths. It is called synchronously from the watcher's flush
// goroutine; a slow handler delays processing of the next batch.
type ChangeHandler func(paths []string)

// Config controls the watcher daemon.
type Config struct {
	Enabled      bool
	DebounceMs   int
	QueueDepth   int
	StateDirName string
	ExcludeDirs  []string
	ExcludeFiles []string
}

// DefaultConfig returns the watcher's built-in defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		DebounceMs: 300,
		QueueDepth: 512,
		ExcludeDirs: []string{
			".git", ".hg", ".svn", "node_modules", "vendor",
			"__pycache__", ".mypy_cache", ".pytest_cache", "build", "dist",
		},
		ExcludeFiles: []string{"*.log", "*.tmp", "*.swp"},
	}
}

// Watcher recursively watches root with fsnotify, debounces events into
// batches, and calls onChange with the batch. When fsnotify reports an
// error (such as an event-queue overflow), the watcher drops its
// pending batch and calls onOverflow so the caller can rescan.
type Watcher struct {
	root         string
	fsWatcher    *fsnotify.Watcher
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	batch        *BatchDebouncer
	onChange     ChangeHandler
	onOverflow   func()
	logger       *logging.Logger
	stateDirName string

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher for root. onChange receives each debounced
// batch of changed paths; onOverflow (optional) is called when fsnotify
// reports an error such as an event-queue overflow, and the pending
// batch is then dropped instead of passed to onChange.
func New(cfg Config, root string, logger *logging.Logger, onChange ChangeHandler, onOverflow func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:         root,
		fsWatcher:    fsw,
		onChange:     onChange,
		onOverflow:   onOverflow,
		logger:       logger,
		stateDirName: cfg.StateDirName,
		stopCh:       make(chan struct{}),
	}

	for _, pattern := range cfg.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}
	for _, pattern := range cfg.ExcludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.excludeFiles = append(w.excludeFiles, g)
	}

	debounceMs := cfg.DebounceMs
	if debounceMs <= 0 {
		debounceMs = 300
	}
	w.batch = NewBatchDebouncer(time.Duration(debounceMs)*time.Millisecond, cfg.QueueDepth, w.flush)

	return w, nil
}

// Start watches root recursively and begins processing events. It does
// not block; call Stop to shut down.
func (w *Watcher) Start() error {
	if err := w.watchRecursive(w.root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop halts the event loop and flushes any pending batch.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()
	w.batch.Flush()
	return w.fsWatcher.Close()
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && (name == w.stateDirName || w.excludedDir(name)) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", map[string]interface{}{"error": err.Error()})
			if w.onOverflow != nil {
				w.batch.Cancel()
				w.onOverflow()
			}
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if !w.excludedDir(info.Name()) {
				if err := w.watchRecursive(event.Name); err != nil {
					w.logger.Warn("watching new directory", map[string]interface{}{"path": event.Name, "error": err.Error()})
				}
				w.enqueueExisting(event.Name)
			}
			return
		}
	}

	if w.excludedFile(filepath.Base(event.Name)) {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.batch.Add(Event{Type: eventTypeOf(event.Op), Path: rel, Timestamp: time.Now()})
	}
}

func (w *Watcher) enqueueExisting(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.excludedFile(info.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		w.batch.Add(Event{Type: EventCreate, Path: filepath.ToSlash(rel), Timestamp: time.Now()})
		return nil
	})
}

func (w *Watcher) flush(events []Event) {
	if w.onChange == nil {
		return
	}
	batchID := uuid.NewString()
	seen := make(map[string]struct{}, len(events))
	paths := make([]string, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.Path]; ok {
			continue
		}
		seen[e.Path] = struct{}{}
		paths = append(paths, e.Path)
	}
	w.logger.Debug("flushing batch", map[string]interface{}{"batch_id": batchID, "paths": len(paths)})
	w.onChange(paths)
}

func (w *Watcher) excludedDir(name string) bool {
	for _, g := range w.excludeDirs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (w *Watcher) excludedFile(name string) bool {
	for _, g := range w.excludeFiles {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func eventTypeOf(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create != 0:
		return EventCreate
	case op&fsnotify.Remove != 0:
		return EventDelete
	case op&fsnotify.Rename != 0:
		return EventRename
	default:
		return EventModify
	}
}
