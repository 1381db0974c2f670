package power

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// LockFile is the execution lock file name inside the state dir.
const LockFile = "node.lock"

// ErrLocked means another execution holds the node.
var ErrLocked = errors.New("node is busy: another execution holds the state lock")

// ExecutionLock is an exclusive flock on the state directory. A node runs
// one execution at a time; trigger and status wait their turn.
type ExecutionLock struct {
	file *os.File
	path string
}

// NewExecutionLock creates a lock for stateDir.
func NewExecutionLock(stateDir string) *ExecutionLock {
	return &ExecutionLock{path: filepath.Join(stateDir, LockFile)}
}

// TryLock takes the lock or fails with ErrLocked.
func (l *ExecutionLock) TryLock() error {
	return l.lock(unix.LOCK_EX | unix.LOCK_NB)
}

// Lock blocks until the lock is free.
func (l *ExecutionLock) Lock() error {
	return l.lock(unix.LOCK_EX)
}

func (l *ExecutionLock) lock(how int) error {
	if l.file != nil {
		return errors.New("execution lock already held")
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), how); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLocked
		}
		return fmt.Errorf("acquire lock: %w", err)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	l.file = f
	return nil
}

// Unlock releases the lock. The file stays so waiters keep the same inode.
func (l *ExecutionLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("release lock: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	return nil
}
