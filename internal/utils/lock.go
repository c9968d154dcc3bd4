package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryInterval = 100 * time.Millisecond

// FileLock is an advisory shared lock on an existing file, which may be
// rewritten by the credential generator while we read it.
type FileLock struct {
	lock *flock.Flock
	path string
}

// NewFileLock locks path itself. The file is opened read-only and never
// created, so it works on read-only mounts.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		lock: flock.New(path, flock.SetFlag(os.O_RDONLY)),
		path: path,
	}
}

// RLock acquires a shared lock, waiting until ctx is done.
func (l *FileLock) RLock(ctx context.Context) error {
	locked, err := l.lock.TryRLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if locked {
		return nil
	}

	Log.Debugf("Waiting for %s, another process is writing the session", l.path)
	locked, err = l.lock.TryRLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", l.path)
	}
	return nil
}

// Unlock releases the lock.
func (l *FileLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
