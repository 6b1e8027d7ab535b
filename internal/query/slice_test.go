package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimalSliceFindsCalleesOfAnchor(t *testing.T) {
	fx := newFixture(t)
	lib := fx.addFile("lib.go", "go")
	main := fx.addFile("main.go", "go")
	helper := fx.addEntity(lib.ID, "Helper", "function", 1, 3)
	runner := fx.addEntity(main.ID, "Run", "function", 1, 10)
	ref := fx.addRef(main.ID, "Helper", 5, true, int64Ptr(helper.ID))
	fx.addCallEdge(runner.ID, helper.ID, ref.ID)

	resp, err := fx.engine.MinimalSlice(SliceRequest{File: "main.go", Line: 5})
	require.NoError(t, err)
	require.NotNil(t, resp.Anchor)
	assert.Equal(t, "Run", resp.Anchor.Name)
	require.Len(t, resp.Callees, 1)
	assert.Equal(t, "Helper", resp.Callees[0].Name)
}

func TestMinimalSliceUnknownFile(t *testing.T) {
	fx := newFixture(t)
	resp, err := fx.engine.MinimalSlice(SliceRequest{File: "missing.go", Line: 1})
	require.NoError(t, err)
	require.NotNil(t, resp.Diagnostics)
	assert.Equal(t, "selector_unresolved", resp.Diagnostics.Reason)
}

func TestMinimalSliceFallsBackToFileWhenNoEnclosingEntity(t *testing.T) {
	fx := newFixture(t)
	f := fx.addFile("main.go", "go")
	fx.addEntity(f.ID, "Run", "function", 10, 20)

	resp, err := fx.engine.MinimalSlice(SliceRequest{File: "main.go", Line: 1})
	require.NoError(t, err)
	assert.Nil(t, resp.Anchor)
}

func TestMinimalSliceTruncatesToMaxNeighbors(t *testing.T) {
	fx := newFixture(t)
	main := fx.addFile("main.go", "go")
	runner := fx.addEntity(main.ID, "Run", "function", 1, 50)
	for i := 0; i < 5; i++ {
		suffix := string(rune('a' + i))
		lib := fx.addFile("lib"+suffix+".go", "go")
		callee := fx.addEntity(lib.ID, "Helper"+suffix, "function", 1, 2)
		ref := fx.addRef(main.ID, "Helper"+suffix, 2+i, true, int64Ptr(callee.ID))
		fx.addCallEdge(runner.ID, callee.ID, ref.ID)
	}

	resp, err := fx.engine.MinimalSlice(SliceRequest{File: "main.go", Line: 1, MaxNeighbors: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Callees), 2)
	assert.Greater(t, resp.Summary.TruncatedCount, 0)
}
