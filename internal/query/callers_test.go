package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolCallersResolved(t *testing.T) {
	fx := newFixture(t)
	lib := fx.addFile("lib.go", "go")
	main := fx.addFile("main.go", "go")
	helper := fx.addEntity(lib.ID, "Helper", "function", 1, 3)
	runner := fx.addEntity(main.ID, "Run", "function", 1, 10)
	ref := fx.addRef(main.ID, "Helper", 5, true, int64Ptr(helper.ID))
	fx.addCallEdge(runner.ID, helper.ID, ref.ID)

	resp, err := fx.engine.SymbolCallers(CallersRequest{Selector: "symbol:Helper"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Run", resp.Items[0].CallerEntity.Name)
	assert.Equal(t, 5, resp.Items[0].Line)
}

func TestSymbolCallersUnresolvedNameOnly(t *testing.T) {
	fx := newFixture(t)
	f := fx.addFile("main.go", "go")
	fx.addRef(f.ID, "mystery", 7, true, nil)

	resp, err := fx.engine.SymbolCallers(CallersRequest{Selector: "symbol:mystery"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 7, resp.Items[0].Line)
	assert.Nil(t, resp.Items[0].CallerEntity)
}

// A defined symbol can still have unresolved callers, e.g. a cross-file
// call whose callee never bound through the import-closure heuristic in
// resolve.go. Both the resolved call_edge and the unresolved name-only
// reference must be surfaced.
func TestSymbolCallersUnionsResolvedAndUnresolved(t *testing.T) {
	fx := newFixture(t)
	lib := fx.addFile("lib.go", "go")
	main := fx.addFile("main.go", "go")
	other := fx.addFile("other.go", "go")
	helper := fx.addEntity(lib.ID, "Helper", "function", 1, 3)
	runner := fx.addEntity(main.ID, "Run", "function", 1, 10)
	ref := fx.addRef(main.ID, "Helper", 5, true, int64Ptr(helper.ID))
	fx.addCallEdge(runner.ID, helper.ID, ref.ID)

	fx.addRef(other.ID, "Helper", 9, true, nil)

	resp, err := fx.engine.SymbolCallers(CallersRequest{Selector: "symbol:Helper"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	var sawResolved, sawUnresolved bool
	for _, item := range resp.Items {
		if item.CallerEntity != nil && item.Line == 5 {
			sawResolved = true
		}
		if item.CallerEntity == nil && item.Line == 9 {
			sawUnresolved = true
		}
	}
	assert.True(t, sawResolved)
	assert.True(t, sawUnresolved)
}
