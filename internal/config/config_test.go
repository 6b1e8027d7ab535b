package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaultsWithoutConfigFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, ".lumora", cfg.StateDir)
	require.Equal(t, 5, cfg.Clone.WindowLines)
	require.Equal(t, 0.35, cfg.Clone.MinSimilarity)
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".lumora"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".lumora", "config.yaml"), []byte(`
watcher:
  debounceMs: 750
clone:
  minSimilarity: 0.5
`), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 750, cfg.Watcher.DebounceMs)
	require.Equal(t, 0.5, cfg.Clone.MinSimilarity)
}

func TestEnvStateDirOverridesConfigFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvStateDir, "/tmp/lumora-state-override")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".lumora"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".lumora", "config.yaml"), []byte("stateDir: from-file\n"), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, "/tmp/lumora-state-override", cfg.StateDir)
}

func TestStatePathJoinsRelativeStateDir(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, filepath.Join("/repo", ".lumora"), cfg.StatePath("/repo"))
}
