package watcher

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/logging"
)

func discardLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.eventType.String())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 300, cfg.DebounceMs)
	assert.NotEmpty(t, cfg.ExcludeDirs)
	assert.Contains(t, cfg.ExcludeDirs, ".git")
	assert.Contains(t, cfg.ExcludeDirs, "node_modules")
}

func TestNewWatcherWatchesExistingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0644))

	cfg := DefaultConfig()
	cfg.DebounceMs = 30

	var mu sync.Mutex
	var batches [][]string
	w, err := New(cfg, root, discardLogger(), func(paths []string) {
		mu.Lock()
		batches = append(batches, paths)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, b := range batches {
			for _, p := range b {
				if p == "main.go" {
					return true
				}
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherIgnoresExcludedDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0755))

	cfg := DefaultConfig()
	cfg.DebounceMs = 30

	var mu sync.Mutex
	var sawNodeModules bool
	w, err := New(cfg, root, discardLogger(), func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range paths {
			if filepath.Dir(p) == "node_modules" {
				sawNodeModules = true
			}
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg.js"), []byte("module.exports = {}\n"), 0644))
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, sawNodeModules)
}

func TestWatcherIgnoresExcludedFilePattern(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.DebounceMs = 30

	var mu sync.Mutex
	var sawLog bool
	w, err := New(cfg, root, discardLogger(), func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range paths {
			if filepath.Ext(p) == ".log" {
				sawLog = true
			}
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "debug.log"), []byte("oops\n"), 0644))
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, sawLog)
}

func TestWatcherStartStop(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()

	w, err := New(cfg, root, discardLogger(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
}

func TestBatchDebouncerAdd(t *testing.T) {
	var received []Event
	var mu sync.Mutex

	emit := func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	}

	b := NewBatchDebouncer(50*time.Millisecond, 0, emit)
	b.Add(Event{Type: EventCreate, Path: "file1.go"})
	b.Add(Event{Type: EventModify, Path: "file2.go"})
	b.Add(Event{Type: EventDelete, Path: "file3.go"})

	assert.Equal(t, 3, b.EventCount())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestBatchDebouncerFlush(t *testing.T) {
	var received []Event
	var mu sync.Mutex

	emit := func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	}

	b := NewBatchDebouncer(500*time.Millisecond, 0, emit)
	b.Add(Event{Type: EventCreate, Path: "file.go"})
	b.Flush()

	mu.Lock()
	assert.Len(t, received, 1)
	mu.Unlock()
	assert.Equal(t, 0, b.EventCount())
}

func TestBatchDebouncerCancel(t *testing.T) {
	var called bool
	var mu sync.Mutex

	emit := func(events []Event) {
		mu.Lock()
		called = true
		mu.Unlock()
	}

	b := NewBatchDebouncer(50*time.Millisecond, 0, emit)
	b.Add(Event{Type: EventCreate, Path: "file.go"})
	b.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.False(t, called)
	mu.Unlock()
	assert.Equal(t, 0, b.EventCount())
}

func TestBatchDebouncerMaxEventsFlushesEarly(t *testing.T) {
	var received []Event
	var mu sync.Mutex

	emit := func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	}

	// Long delay so only the maxEvents cap, not the timer, can explain
	// an immediate flush.
	b := NewBatchDebouncer(time.Hour, 2, emit)
	b.Add(Event{Type: EventCreate, Path: "file1.go"})
	b.Add(Event{Type: EventCreate, Path: "file2.go"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, b.EventCount())
}
