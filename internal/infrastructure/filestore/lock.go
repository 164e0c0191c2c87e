package filestore

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/platewise/reviewpipe/internal/domain"
)

const lockFileName = ".reviewpipe.lock"

// Lock is an exclusive run lock on a data directory
type Lock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the data directory lock without waiting.
// It returns domain.ErrPipelineLocked when another run holds it.
func AcquireLock(dir string) (*Lock, error) {
	path := filepath.Join(dir, lockFileName)
	l := flock.New(path)

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: lock held at %s", domain.ErrPipelineLocked, path)
	}
	return &Lock{path: path, lock: l}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string { return l.path }

// Release unlocks the data directory
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
