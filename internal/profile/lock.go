package profile

import (
	"fmt"
	"os"
	"time"
)

// Retry cadence for a busy lock. Vars rather than consts so contention tests
// can shrink the window.
var (
	lockRetryDelay = time.Second
	lockTimeout    = 10 * time.Second
)

// ErrLockTimeout means another process held the profiles lock for the whole
// acquisition window.
var ErrLockTimeout = fmt.Errorf("could not acquire profiles lock; ensure no other cxprof is running and retry")

// Lock is an exclusive advisory lock over the profiles directory, backed by
// flock(2) on the profiles.lock sentinel.
type Lock struct {
	file *os.File
}

// AcquireLock takes the profiles lock, polling once a second until the
// timeout elapses.
func AcquireLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open profiles lock: %w", err)
	}
	deadline := time.Now().Add(lockTimeout)
	for {
		locked, err := tryLockFile(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("could not lock profiles file: %w", err)
		}
		if locked {
			return &Lock{file: file}, nil
		}
		if time.Now().After(deadline) {
			file.Close()
			return nil, ErrLockTimeout
		}
		time.Sleep(lockRetryDelay)
	}
}

// Release drops the lock. Safe to call on nil or twice.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	unlockFile(l.file)
	l.file.Close()
	l.file = nil
}
