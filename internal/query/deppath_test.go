package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/storage"
)

func TestDependencyPathDirectHop(t *testing.T) {
	fx := newFixture(t)
	a := fx.addFile("a.go", "go")
	b := fx.addFile("b.go", "go")
	fx.addFileDep(a.ID, b.ID, storage.FileDepImport)

	resp, err := fx.engine.DependencyPath(DependencyPathRequest{SelectorA: "file:a.go", SelectorB: "file:b.go"})
	require.NoError(t, err)
	require.Len(t, resp.Path, 2)
	assert.Equal(t, "a.go", resp.Path[0].Path)
	assert.Equal(t, "b.go", resp.Path[1].Path)
	require.Len(t, resp.Hops, 1)
	assert.Contains(t, resp.Hops[0].Kinds, "import")
}

func TestDependencyPathMultiHop(t *testing.T) {
	fx := newFixture(t)
	a := fx.addFile("a.go", "go")
	b := fx.addFile("b.go", "go")
	c := fx.addFile("c.go", "go")
	fx.addFileDep(a.ID, b.ID, storage.FileDepImport)
	fx.addFileDep(b.ID, c.ID, storage.FileDepImport)

	resp, err := fx.engine.DependencyPath(DependencyPathRequest{SelectorA: "file:a.go", SelectorB: "file:c.go", MaxDepth: 5})
	require.NoError(t, err)
	require.Len(t, resp.Path, 3)
	assert.Equal(t, "b.go", resp.Path[1].Path)
}

func TestDependencyPathNoPathWithinMaxDepth(t *testing.T) {
	fx := newFixture(t)
	a := fx.addFile("a.go", "go")
	b := fx.addFile("b.go", "go")
	c := fx.addFile("c.go", "go")
	fx.addFileDep(a.ID, b.ID, storage.FileDepImport)
	fx.addFileDep(b.ID, c.ID, storage.FileDepImport)

	resp, err := fx.engine.DependencyPath(DependencyPathRequest{SelectorA: "file:a.go", SelectorB: "file:c.go", MaxDepth: 1})
	require.NoError(t, err)
	assert.Nil(t, resp.Path)
	require.NotNil(t, resp.Diagnostics)
	assert.Equal(t, "no_path_within_max_depth", resp.Diagnostics.Reason)
}

func TestDependencyPathUnresolvedSelector(t *testing.T) {
	fx := newFixture(t)
	fx.addFile("a.go", "go")

	resp, err := fx.engine.DependencyPath(DependencyPathRequest{SelectorA: "file:a.go", SelectorB: "file:missing.go"})
	require.NoError(t, err)
	require.NotNil(t, resp.Diagnostics)
	assert.Equal(t, "selector_unresolved", resp.Diagnostics.Reason)
}
