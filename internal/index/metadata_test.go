package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRunMetaNoFile(t *testing.T) {
	tmpDir := t.TempDir()

	meta, err := LoadRunMeta(tmpDir)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestSaveAndLoadRunMeta(t *testing.T) {
	tmpDir := t.TempDir()

	original := &RunMeta{
		Mode:         "full",
		StartedAt:    time.Now().Add(-3 * time.Second).Truncate(time.Second),
		FinishedAt:   time.Now().Truncate(time.Second),
		FilesScanned: 120,
		FilesIndexed: 118,
		FilesFailed:  2,
		FilesSkipped: 0,
		SchemaBuild:  1,
	}

	require.NoError(t, original.Save(tmpDir))

	path := filepath.Join(tmpDir, metadataFileName)
	assert.FileExists(t, path)

	loaded, err := LoadRunMeta(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, MetadataVersion, loaded.Version)
	assert.Equal(t, original.Mode, loaded.Mode)
	assert.True(t, original.StartedAt.Equal(loaded.StartedAt))
	assert.True(t, original.FinishedAt.Equal(loaded.FinishedAt))
	assert.Equal(t, original.FilesScanned, loaded.FilesScanned)
	assert.Equal(t, original.FilesIndexed, loaded.FilesIndexed)
	assert.Equal(t, original.FilesFailed, loaded.FilesFailed)
	assert.Equal(t, original.SchemaBuild, loaded.SchemaBuild)
}

func TestLoadRunMetaVersionMismatchIsTreatedAsMissing(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, metadataFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 999, "mode": "full"}`), 0644))

	meta, err := LoadRunMeta(tmpDir)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestRunMetaDuration(t *testing.T) {
	m := &RunMeta{
		StartedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC),
	}
	assert.Equal(t, 5*time.Second, m.Duration())

	var zero RunMeta
	assert.Equal(t, time.Duration(0), zero.Duration())
}
