//go:build !windows

package index

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	tmpDir := t.TempDir()

	lock, err := AcquireLock(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, lock)

	lockPath := filepath.Join(tmpDir, lockFileName)
	content, err := os.ReadFile(lockPath)
	require.NoError(t, err)

	pid, err := strconv.Atoi(string(content))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	lock.Release()
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireLockAlreadyLocked(t *testing.T) {
	tmpDir := t.TempDir()

	lock1, err := AcquireLock(tmpDir)
	require.NoError(t, err)
	defer lock1.Release()

	lock2, err := AcquireLock(tmpDir)
	assert.Error(t, err)
	assert.Nil(t, lock2)
}

func TestAcquireLockCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	stateDir := filepath.Join(tmpDir, ".lumora")

	_, err := os.Stat(stateDir)
	require.True(t, os.IsNotExist(err))

	lock, err := AcquireLock(stateDir)
	require.NoError(t, err)
	defer lock.Release()

	_, err = os.Stat(stateDir)
	assert.NoError(t, err)
}

func TestReleaseLockNilSafe(t *testing.T) {
	var lock *Lock
	lock.Release()
}
