package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolReferencesDedup(t *testing.T) {
	fx := newFixture(t)
	f := fx.addFile("main.go", "go")
	target := fx.addEntity(f.ID, "Helper", "function", 1, 2)
	fx.addRef(f.ID, "Helper", 10, true, int64Ptr(target.ID))
	fx.addRef(f.ID, "Helper", 10, true, int64Ptr(target.ID)) // duplicate (file_id, line)

	resp, err := fx.engine.SymbolReferences(ReferencesRequest{Selector: "symbol:Helper", Dedup: true})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
}

func TestSymbolReferencesCallsOnly(t *testing.T) {
	fx := newFixture(t)
	f := fx.addFile("main.go", "go")
	target := fx.addEntity(f.ID, "Helper", "function", 1, 2)
	fx.addRef(f.ID, "Helper", 5, false, int64Ptr(target.ID))
	fx.addRef(f.ID, "Helper", 10, true, int64Ptr(target.ID))

	resp, err := fx.engine.SymbolReferences(ReferencesRequest{Selector: "symbol:Helper", CallsOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 10, resp.Items[0].Ref.Line)
}

func TestSymbolReferencesTopFiles(t *testing.T) {
	fx := newFixture(t)
	a := fx.addFile("a.go", "go")
	b := fx.addFile("b.go", "go")
	target := fx.addEntity(a.ID, "Helper", "function", 1, 2)
	fx.addRef(a.ID, "Helper", 5, true, int64Ptr(target.ID))
	fx.addRef(a.ID, "Helper", 6, true, int64Ptr(target.ID))
	fx.addRef(b.ID, "Helper", 3, true, int64Ptr(target.ID))

	resp, err := fx.engine.SymbolReferences(ReferencesRequest{Selector: "symbol:Helper", TopFiles: true})
	require.NoError(t, err)
	require.Len(t, resp.TopFiles, 2)
	assert.Equal(t, "a.go", resp.TopFiles[0].Path)
	assert.Equal(t, 2, resp.TopFiles[0].Count)
}

func TestSymbolReferencesUnresolvedNameOnly(t *testing.T) {
	fx := newFixture(t)
	f := fx.addFile("main.go", "go")
	fx.addRef(f.ID, "mystery", 1, true, nil)

	resp, err := fx.engine.SymbolReferences(ReferencesRequest{Selector: "symbol:mystery"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.False(t, resp.Items[0].Ref.Resolved)
}

func TestSymbolReferencesRejectsFileSelector(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.engine.SymbolReferences(ReferencesRequest{Selector: "file:main.go"})
	assert.Error(t, err)
}
