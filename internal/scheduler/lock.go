package scheduler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// IndexLock guards a project's data directory against two Indexing
// Scheduler instances running concurrently against it (e.g. two MCP server
// processes serving the same project), the way internal/embed's FileLock
// guards concurrent model downloads.
type IndexLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewIndexLock creates a lock file at <dataDir>/.index.lock.
func NewIndexLock(dataDir string) *IndexLock {
	path := filepath.Join(dataDir, ".index.lock")
	return &IndexLock{path: path, flock: flock.New(path)}
}

// TryLock attempts to acquire the lock without blocking.
func (l *IndexLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked IndexLock.
func (l *IndexLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release index lock: %w", err)
	}
	l.locked = false
	return nil
}
