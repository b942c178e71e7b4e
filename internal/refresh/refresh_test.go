package refresh

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eon-ic/rofi-rwifi/internal/cache"
	"github.com/eon-ic/rofi-rwifi/internal/flock"
	"github.com/eon-ic/rofi-rwifi/wifi"
)

type fakeScanner struct {
	mu    sync.Mutex
	scans int
	aps   []wifi.AccessPoint
	err   error
}

func (f *fakeScanner) Rescan() error { return nil }

func (f *fakeScanner) AccessPoints() ([]wifi.AccessPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return f.aps, f.err
}

func (f *fakeScanner) scanCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans
}

func newTestCoordinator(t *testing.T, scanner Scanner) (*Coordinator, *cache.Store) {
	t.Helper()
	dir := t.TempDir()
	store := cache.New(filepath.Join(dir, "cache.json"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, scanner, filepath.Join(dir, "scan.lock"), 30*time.Second, 10, logger), store
}

func TestColdStartScansSynchronously(t *testing.T) {
	scanner := &fakeScanner{aps: []wifi.AccessPoint{{SSID: "Home", Signal: 80}}}
	c, _ := newTestCoordinator(t, scanner)

	aps := c.EnsureFresh(false)
	require.Equal(t, scanner.aps, aps)
	require.Equal(t, 1, scanner.scanCount())
}

func TestHitReturnsImmediatelyAndRevalidatesOnce(t *testing.T) {
	scanner := &fakeScanner{aps: []wifi.AccessPoint{{SSID: "Home", Signal: 80}}}
	c, store := newTestCoordinator(t, scanner)

	cached := []wifi.AccessPoint{{SSID: "Stale", Signal: 50}}
	require.NoError(t, store.Write(cached))

	aps := c.EnsureFresh(false)
	require.Equal(t, cached, aps, "a hit must return the cached list, not the fresh scan")

	c.Wait()
	require.Equal(t, 1, scanner.scanCount(), "a hit must trigger exactly one background scan")

	// The background scan replaced the snapshot for the next read.
	next, ok := store.Read(30 * time.Second)
	require.True(t, ok)
	require.Equal(t, scanner.aps, next)
}

func TestForceInvalidatesBeforeReading(t *testing.T) {
	scanner := &fakeScanner{aps: []wifi.AccessPoint{{SSID: "Fresh", Signal: 90}}}
	c, store := newTestCoordinator(t, scanner)

	require.NoError(t, store.Write([]wifi.AccessPoint{{SSID: "Old", Signal: 10}}))

	aps := c.EnsureFresh(true)
	require.Equal(t, scanner.aps, aps, "force must bypass the cached snapshot")
	require.Equal(t, 1, scanner.scanCount())
}

func TestBusyLockFallsBackToStaleRead(t *testing.T) {
	scanner := &fakeScanner{aps: []wifi.AccessPoint{{SSID: "New"}}}
	c, store := newTestCoordinator(t, scanner)

	// Back-date a snapshot so it misses the 30s TTL but sits inside the
	// 10x stale window.
	stale := []wifi.AccessPoint{{SSID: "Stale", Signal: 42}}
	writeSnapshotAt(t, store, stale, time.Now().Add(-time.Minute))

	// Hold the lock as if another scan were in flight.
	guard, err := flock.TryLock(c.lockPath)
	require.NoError(t, err)
	defer guard.Release()

	aps := c.EnsureFresh(false)
	require.Equal(t, stale, aps, "lock contention must fall back to the stale snapshot")
	require.Equal(t, 0, scanner.scanCount(), "the duplicate scan must be skipped")
}

// writeSnapshotAt writes a cache file with an arbitrary capture time, using
// the store's on-disk format.
func writeSnapshotAt(t *testing.T, store *cache.Store, aps []wifi.AccessPoint, ts time.Time) {
	t.Helper()
	data, err := json.Marshal(struct {
		Timestamp int64              `json:"timestamp"`
		APs       []wifi.AccessPoint `json:"aps"`
	}{Timestamp: ts.Unix(), APs: aps})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), data, 0o600))
}

func TestScanFailureIsSwallowed(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("scan blew up")}
	c, _ := newTestCoordinator(t, scanner)

	aps := c.EnsureFresh(false)
	require.Empty(t, aps, "a failed scan degrades to an empty list")
}

func TestMutualExclusionAcrossScanAndWrite(t *testing.T) {
	scanner := &fakeScanner{aps: []wifi.AccessPoint{{SSID: "Home"}}}
	c, _ := newTestCoordinator(t, scanner)

	guard, err := flock.TryLock(c.lockPath)
	require.NoError(t, err)

	c.ScanAndWrite() // must skip: lock is held
	require.Equal(t, 0, scanner.scanCount())

	guard.Release()
	c.ScanAndWrite()
	require.Equal(t, 1, scanner.scanCount())
}
