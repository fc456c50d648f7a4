// Package runlock keeps two runs from interleaving their processed-set
// load-modify-save cycles.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"VideoDigest/internal/ports"
)

// FileLock is a non-blocking advisory lock on a file.
type FileLock struct {
	lock *flock.Flock
}

var _ ports.RunLock = (*FileLock)(nil)

// New prepares a lock on path; the file is created on first TryLock.
func New(path string) *FileLock {
	return &FileLock{lock: flock.New(path)}
}

// TryLock acquires the lock without waiting and reports whether it was taken.
func (l *FileLock) TryLock() (bool, error) {
	if dir := filepath.Dir(l.lock.Path()); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create lock directory: %w", err)
		}
	}
	locked, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("lock %s: %w", l.lock.Path(), err)
	}
	return locked, nil
}

// Unlock releases the lock.
func (l *FileLock) Unlock() error {
	return l.lock.Unlock()
}
