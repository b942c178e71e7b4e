package flock

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestTryLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.lock")

	guard, err := TryLock(path)
	if err != nil {
		t.Fatalf("TryLock() error: %v", err)
	}

	// flock is per open file description, so a second acquisition conflicts
	// even within one process.
	if _, err := TryLock(path); !errors.Is(err, ErrBusy) {
		t.Fatalf("second TryLock() error = %v, want ErrBusy", err)
	}

	guard.Release()

	guard2, err := TryLock(path)
	if err != nil {
		t.Fatalf("TryLock() after Release() error: %v", err)
	}
	guard2.Release()
}

func TestTryLockDistinctPaths(t *testing.T) {
	dir := t.TempDir()

	a, err := TryLock(filepath.Join(dir, "a.lock"))
	if err != nil {
		t.Fatalf("TryLock(a) error: %v", err)
	}
	defer a.Release()

	b, err := TryLock(filepath.Join(dir, "b.lock"))
	if err != nil {
		t.Fatalf("TryLock(b) error: %v", err)
	}
	b.Release()
}
