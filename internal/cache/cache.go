// Package cache persists the most recent scan result with a TTL. Writes are
// atomic (temp file + rename) so the interactive process and the daemon can
// share the file without readers ever observing a partial snapshot.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/eon-ic/rofi-rwifi/wifi"
)

// snapshot is the on-disk replace-unit: capture time plus the ordered list.
type snapshot struct {
	Timestamp int64              `json:"timestamp"`
	APs       []wifi.AccessPoint `json:"aps"`
}

// Store is a TTL cache bound to a single file path.
type Store struct {
	path string
	now  func() time.Time
}

// New creates a Store at path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Write replaces the stored snapshot with aps, stamped with the current
// time. The write goes to a temp file first and is renamed into place, so a
// crash mid-write leaves the previous snapshot intact.
func (s *Store) Write(aps []wifi.AccessPoint) error {
	data, err := json.Marshal(snapshot{
		Timestamp: s.now().Unix(),
		APs:       aps,
	})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Read returns the stored access points if the snapshot is younger than
// ttl. A missing, unreadable or expired file is a normal miss, not an
// error.
func (s *Store) Read(ttl time.Duration) ([]wifi.AccessPoint, bool) {
	snap, ok := s.load()
	if !ok {
		return nil, false
	}
	if s.age(snap) >= ttl {
		return nil, false
	}
	return snap.APs, true
}

// Invalidate removes the snapshot. Absence is not an error.
func (s *Store) Invalidate() {
	os.Remove(s.path)
}

// Remaining returns how much of ttl is left for the stored snapshot,
// clamped at zero. Advisory only: any read or parse problem reads as zero.
func (s *Store) Remaining(ttl time.Duration) time.Duration {
	snap, ok := s.load()
	if !ok {
		return 0
	}
	if remaining := ttl - s.age(snap); remaining > 0 {
		return remaining
	}
	return 0
}

func (s *Store) load() (snapshot, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return snapshot{}, false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, false
	}
	return snap, true
}

func (s *Store) age(snap snapshot) time.Duration {
	age := s.now().Unix() - snap.Timestamp
	if age < 0 {
		age = 0
	}
	return time.Duration(age) * time.Second
}
