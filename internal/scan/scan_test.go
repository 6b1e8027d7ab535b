package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/extract"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestScanSkipsStateDirAndClassifiesLanguage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "README.md", "# hi\n")
	writeFile(t, root, ".lumora/graph.db", "binary")

	entries, err := Scan(context.Background(), root, Options{StateDirName: ".lumora"})
	require.NoError(t, err)

	byPath := map[string]Entry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}

	_, stateDirSeen := byPath[".lumora/graph.db"]
	require.False(t, stateDirSeen)

	mainGo, ok := byPath["main.go"]
	require.True(t, ok)
	require.Equal(t, extract.LangGo, mainGo.Language)
	require.NotEmpty(t, mainGo.ContentHash)
}

func TestScanMarksOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 10)
	writeFile(t, root, "tiny.go", string(big))

	entries, err := Scan(context.Background(), root, Options{StateDirName: ".lumora", MaxFileSize: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Oversized)
	require.Empty(t, entries[0].ContentHash)
}

func TestScanIsDeterministicallyOrdered(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "package b\n")
	writeFile(t, root, "a.go", "package a\n")

	entries, err := Scan(context.Background(), root, Options{StateDirName: ".lumora"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a.go", entries[0].Path)
	require.Equal(t, "b.go", entries[1].Path)
}
