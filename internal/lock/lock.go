// Package lock keeps two ingestion runs from writing the same output directory.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the output directory.
const FileName = ".ingest.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("output directory is locked by another ingest run")

// RunLock is an exclusive file lock on an output directory.
type RunLock struct {
	path string
	lock *flock.Flock
}

// New creates a lock for outputDir. Nothing is acquired yet.
func New(outputDir string) *RunLock {
	path := filepath.Join(outputDir, FileName)
	return &RunLock{path: path, lock: flock.New(path)}
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// TryAcquire takes the lock without waiting.
// Returns ErrLocked if another process holds it.
func (l *RunLock) TryAcquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	return nil
}

// Acquire waits for the lock, retrying every retryDelay until ctx is done.
func (l *RunLock) Acquire(ctx context.Context, retryDelay time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.lock.TryLockContext(ctx, retryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %w", ErrLocked, l.path, ctx.Err())
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	return nil
}

// Release releases the lock. Releasing an unheld lock is a no-op.
func (l *RunLock) Release() error {
	if !l.lock.Locked() {
		return nil
	}
	return l.lock.Unlock()
}
