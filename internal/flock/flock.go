// Package flock provides a non-blocking advisory file lock. It guards the
// scan-and-write sequence against concurrent scans from the interactive
// process and the daemon; the kernel releases the lock if the holder dies.
package flock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrBusy is returned when another process already holds the lock.
var ErrBusy = errors.New("lock is held by another process")

// Guard represents a held lock. Release it exactly once.
type Guard struct {
	f *os.File
}

// TryLock acquires an exclusive advisory lock on the marker file at path
// without blocking. It returns ErrBusy when another holder owns it.
func TryLock(path string) (*Guard, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &Guard{f: f}, nil
}

// Release unlocks and closes the marker file.
func (g *Guard) Release() {
	unix.Flock(int(g.f.Fd()), unix.LOCK_UN)
	g.f.Close()
}
