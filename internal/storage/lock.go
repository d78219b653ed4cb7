package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds a conflicting lock on
// the index.
var ErrLocked = errors.New("index is locked by another subclip process")

// Lock is an advisory lock on a database file, held in a sibling
// "<db>.lock" file.
type Lock struct {
	fl *flock.Flock
}

// LockPath returns the lock file used for dbPath.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// LockExclusive takes the write lock for indexing. It does not wait.
func LockExclusive(dbPath string) (*Lock, error) {
	return acquire(dbPath, false)
}

// LockShared takes a read lock for searching. It does not wait.
func LockShared(dbPath string) (*Lock, error) {
	return acquire(dbPath, true)
}

func acquire(dbPath string, shared bool) (*Lock, error) {
	path := LockPath(dbPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)
	var ok bool
	var err error
	if shared {
		ok, err = fl.TryRLock()
	} else {
		ok, err = fl.TryLock()
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		_ = fl.Close()
		return nil, fmt.Errorf("%s: %w", dbPath, ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Unlock releases the lock. The lock file itself is left in place.
func (l *Lock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
