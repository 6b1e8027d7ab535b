package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLumoraErrorWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(IoError, "failed to write graph.db", cause)

	require.Error(t, err)
	assert.Equal(t, IoError, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestGetSuggestedFixesKnownCode(t *testing.T) {
	fixes := GetSuggestedFixes(StoreError)
	require.Len(t, fixes, 1)
	assert.Equal(t, RunCommand, fixes[0].Type)
}

func TestGetSuggestedFixesUnknownCode(t *testing.T) {
	assert.Nil(t, GetSuggestedFixes(ParseError))
}

func TestExitCodeMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		InvalidArgument:    2,
		SelectorUnresolved: 3,
		IoError:            1,
		StoreError:         1,
	}
	for code, want := range cases {
		assert.Equal(t, want, ExitCode(code), "code %s", code)
	}
}
