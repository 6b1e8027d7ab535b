package clone

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintsSkipsShortFiles(t *testing.T) {
	src := []byte("a\nb\n")
	windows := Fingerprints(src, DefaultWindowLines, DefaultStride, DefaultSkipBelowLineCount)
	assert.Nil(t, windows)
}

func TestFingerprintsProducesOverlappingWindows(t *testing.T) {
	src := []byte(strings.Repeat("line\n", 10))
	windows := Fingerprints(src, 5, 1, 5)
	require.Len(t, windows, 6)
	assert.Equal(t, 1, windows[0].StartLine)
	assert.Equal(t, 5, windows[0].EndLine)
	assert.Equal(t, 6, windows[5].StartLine)
	assert.Equal(t, 5, windows[0].Weight)
}

func TestFingerprintsIdentifierRenameCollides(t *testing.T) {
	a := []byte("func foo() {\n  x := 1\n  y := 2\n  return x + y\n}\n")
	b := []byte("func bar() {\n  p := 1\n  q := 2\n  return p + q\n}\n")

	wa := Fingerprints(a, 5, 1, 5)
	wb := Fingerprints(b, 5, 1, 5)
	require.Len(t, wa, 1)
	require.Len(t, wb, 1)
	assert.Equal(t, wa[0].Hash, wb[0].Hash)
}

func TestFingerprintsDistinctContentDiffers(t *testing.T) {
	a := []byte(strings.Repeat("alpha\n", 5))
	b := []byte(strings.Repeat("beta beta beta\n", 5))

	wa := Fingerprints(a, 5, 1, 5)
	wb := Fingerprints(b, 5, 1, 5)
	require.Len(t, wa, 1)
	require.Len(t, wb, 1)
	assert.NotEqual(t, wa[0].Hash, wb[0].Hash)
}
