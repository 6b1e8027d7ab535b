//go:build windows

package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const lockFileName = "index.lock"

// Lock is a best-effort PID-file lock on Windows: no flock equivalent,
// so a stale lock left by a killed process will not be detected.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock writes stateDir/index.lock with the current PID.
func AcquireLock(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	path := filepath.Join(stateDir, lockFileName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release closes and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	l.file.Close()
	os.Remove(l.path)
}
