package query

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/storage"
)

func (f *fixture) addFingerprint(fileID int64, hash int64, start, end int) {
	require.NoError(f.t, f.db.WithTx(func(tx *sql.Tx) error {
		return f.fps.Insert(tx, &storage.CloneFingerprint{FileID: fileID, WindowHash: hash, StartLine: start, EndLine: end, Weight: end - start + 1})
	}))
}

func TestCloneMatchesFindsSharedWindows(t *testing.T) {
	fx := newFixture(t)
	a := fx.addFile("a.go", "go")
	b := fx.addFile("b.go", "go")
	fx.addFingerprint(a.ID, 111, 1, 5)
	fx.addFingerprint(a.ID, 222, 6, 10)
	fx.addFingerprint(b.ID, 111, 1, 5)

	resp, err := fx.engine.CloneMatches(CloneMatchesRequest{Paths: []string{"a.go"}, MinSimilarity: 0.1})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, 0.5, resp.Matches[0].Similarity)
}

func TestCloneMatchesSuggestsLowerThreshold(t *testing.T) {
	fx := newFixture(t)
	a := fx.addFile("a.go", "go")
	b := fx.addFile("b.go", "go")
	fx.addFingerprint(a.ID, 111, 1, 5)
	fx.addFingerprint(a.ID, 222, 6, 10)
	fx.addFingerprint(b.ID, 111, 1, 5)

	resp, err := fx.engine.CloneMatches(CloneMatchesRequest{Paths: []string{"a.go"}, MinSimilarity: 0.9})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.GreaterOrEqual(t, resp.Analysis.SuggestedMinSimilarity, 0.1)
}

func TestCloneMatchesUnresolvedSelector(t *testing.T) {
	fx := newFixture(t)
	resp, err := fx.engine.CloneMatches(CloneMatchesRequest{Paths: []string{"missing.go"}})
	require.NoError(t, err)
	require.NotNil(t, resp.Diagnostics)
}

func TestCloneMatchesHotspots(t *testing.T) {
	fx := newFixture(t)
	a := fx.addFile("pkg/a.go", "go")
	b := fx.addFile("pkg/b.go", "go")
	fx.addFingerprint(a.ID, 999, 1, 5)
	fx.addFingerprint(b.ID, 999, 1, 5)

	resp, err := fx.engine.CloneMatches(CloneMatchesRequest{Paths: []string{"pkg/a.go"}, Mode: CloneModeHotspots, MinSimilarity: 0.1})
	require.NoError(t, err)
	require.Len(t, resp.Hotspots, 1)
	assert.Equal(t, "pkg", resp.Hotspots[0].Directory)
}
