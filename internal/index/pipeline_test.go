package index

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/config"
	"github.com/quintant/lumora/internal/extract"
	"github.com/quintant/lumora/internal/logging"
	"github.com/quintant/lumora/internal/storage"
)

// lineProtocolExtractor is a test double that derives an Extraction
// from plain-text directives instead of real source syntax, so pipeline
// tests can exercise resolution without a tree-sitter grammar:
//
//	DEF <name> <kind> <startLine> <endLine>
//	REF <name> <line> <col> <call|noop>
//	IMPORT <rawPath>
type lineProtocolExtractor struct{}

func (lineProtocolExtractor) Capabilities() extract.Capability {
	return extract.CapDefinitions | extract.CapReferences | extract.CapImports | extract.CapCalls
}

func (lineProtocolExtractor) Extract(_ context.Context, _ string, src []byte) (*extract.Extraction, error) {
	ext := &extract.Extraction{ParseOK: true}
	for _, line := range strings.Split(string(src), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "DEF":
			start, _ := strconv.Atoi(fields[3])
			end, _ := strconv.Atoi(fields[4])
			ext.Definitions = append(ext.Definitions, extract.Definition{
				Name: fields[1], Kind: fields[2], StartLine: start, EndLine: end,
			})
		case "REF":
			lineNo, _ := strconv.Atoi(fields[2])
			col, _ := strconv.Atoi(fields[3])
			ext.References = append(ext.References, extract.Reference{
				Name: fields[1], Line: lineNo, Column: col, IsCall: fields[4] == "call",
			})
		case "IMPORT":
			ext.Imports = append(ext.Imports, extract.ImportStmt{RawPath: fields[1]})
		}
	}
	return ext, nil
}

func setupIndexer(t *testing.T) (*Indexer, string) {
	t.Helper()
	repoRoot := t.TempDir()
	stateDir := filepath.Join(repoRoot, ".lumora")

	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
	db, err := storage.Open(stateDir, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := extract.NewRegistry(lineProtocolExtractor{})
	cfg := config.DefaultConfig()
	cfg.Index.WorkerCount = 2

	return NewIndexer(repoRoot, stateDir, db, registry, cfg, logger), repoRoot
}

func writeSource(t *testing.T, repoRoot, relPath, content string) {
	t.Helper()
	full := filepath.Join(repoRoot, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestRunFullIndexesAndResolvesWithinFile(t *testing.T) {
	ix, repoRoot := setupIndexer(t)
	writeSource(t, repoRoot, "main.go", "DEF foo function 1 5\nREF foo 10 2 call\n")

	counters, err := ix.RunFull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counters.FilesChanged)

	refs, err := ix.refs.ListByFile(mustFileID(t, ix, "main.go"))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Resolved)
	require.NotNil(t, refs[0].TargetEntityID)
}

func TestRunFullResolvesAcrossImport(t *testing.T) {
	ix, repoRoot := setupIndexer(t)
	writeSource(t, repoRoot, "lib.go", "DEF helper function 1 3\n")
	writeSource(t, repoRoot, "main.go", "IMPORT ./lib\nDEF run function 1 5\nREF helper 3 2 call\n")

	_, err := ix.RunFull(context.Background())
	require.NoError(t, err)

	mainID := mustFileID(t, ix, "main.go")
	refs, err := ix.refs.ListByFile(mainID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Resolved)

	deps, err := ix.fileDeps.ListFrom(mainID)
	require.NoError(t, err)
	require.Len(t, deps, 2) // import edge + call edge to lib.go
}

func TestRunIncrementalSkipsUnchangedFiles(t *testing.T) {
	ix, repoRoot := setupIndexer(t)
	writeSource(t, repoRoot, "a.go", "DEF foo function 1 2\n")

	_, err := ix.RunFull(context.Background())
	require.NoError(t, err)

	counters, err := ix.RunIncremental(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counters.FilesUnchanged)
	assert.Equal(t, 0, counters.FilesChanged)
}

func TestRunIncrementalDetectsChangeAndRemoval(t *testing.T) {
	ix, repoRoot := setupIndexer(t)
	writeSource(t, repoRoot, "a.go", "DEF foo function 1 2\n")
	writeSource(t, repoRoot, "b.go", "DEF bar function 1 2\n")

	_, err := ix.RunFull(context.Background())
	require.NoError(t, err)

	writeSource(t, repoRoot, "a.go", "DEF foo function 1 3\nDEF extra function 4 5\n")
	require.NoError(t, os.Remove(filepath.Join(repoRoot, "b.go")))

	counters, err := ix.RunIncremental(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counters.FilesChanged)
	assert.Equal(t, 1, counters.FilesRemoved)

	got, err := ix.files.GetByPath("b.go")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnresolvableCrossFileReferenceStaysNameOnly(t *testing.T) {
	ix, repoRoot := setupIndexer(t)
	writeSource(t, repoRoot, "main.go", "REF mystery 1 1 call\n")

	_, err := ix.RunFull(context.Background())
	require.NoError(t, err)

	refs, err := ix.refs.ListByFile(mustFileID(t, ix, "main.go"))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.False(t, refs[0].Resolved)
	assert.Nil(t, refs[0].TargetEntityID)
}

func mustFileID(t *testing.T, ix *Indexer, path string) int64 {
	t.Helper()
	f, err := ix.files.GetByPath(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	return f.ID
}
