// Package refresh coordinates the scan cache, the scan lock and the
// backend into a stale-while-revalidate read policy: cached data is served
// immediately while a background scan keeps it warm, and the caller only
// waits for a scan on a true cold start.
package refresh

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/eon-ic/rofi-rwifi/internal/cache"
	"github.com/eon-ic/rofi-rwifi/internal/flock"
	"github.com/eon-ic/rofi-rwifi/wifi"
)

// Scanner is the slice of the backend the coordinator needs.
type Scanner interface {
	Rescan() error
	AccessPoints() ([]wifi.AccessPoint, error)
}

// Coordinator implements the stale-while-revalidate policy over a shared
// cache file and scan lock.
type Coordinator struct {
	cache       *cache.Store
	scanner     Scanner
	lockPath    string
	ttl         time.Duration
	staleFactor int
	logger      *slog.Logger

	bg sync.WaitGroup
}

// New creates a Coordinator. staleFactor widens the TTL for the re-read
// performed when another scan already holds the lock; values below 1 are
// treated as 1.
func New(store *cache.Store, scanner Scanner, lockPath string, ttl time.Duration, staleFactor int, logger *slog.Logger) *Coordinator {
	if staleFactor < 1 {
		staleFactor = 1
	}
	return &Coordinator{
		cache:       store,
		scanner:     scanner,
		lockPath:    lockPath,
		ttl:         ttl,
		staleFactor: staleFactor,
		logger:      logger,
	}
}

// EnsureFresh returns the current access-point list. A cache hit is
// returned immediately and a background scan-and-write is fired to keep
// the cache warm; a miss blocks on a synchronous scan. Nothing here ever
// returns an error: the worst case is an empty list.
func (c *Coordinator) EnsureFresh(force bool) []wifi.AccessPoint {
	if force {
		c.cache.Invalidate()
	}

	if aps, ok := c.cache.Read(c.ttl); ok {
		c.bg.Add(1)
		go func() {
			defer c.bg.Done()
			c.ScanAndWrite()
		}()
		return aps
	}

	c.ScanAndWrite()

	// If the lock was busy the write above was skipped, but the in-flight
	// scan's result lands in the same cache file; accept a much older
	// snapshot rather than returning nothing over lock contention.
	aps, _ := c.cache.Read(c.ttl * time.Duration(c.staleFactor))
	return aps
}

// ScanAndWrite performs one guarded scan and replaces the cache snapshot.
// When another scan already holds the lock it returns without scanning.
// Failures are logged and swallowed; they must never reach the UI.
func (c *Coordinator) ScanAndWrite() {
	guard, err := flock.TryLock(c.lockPath)
	if err != nil {
		if errors.Is(err, flock.ErrBusy) {
			c.logger.Debug("scan already in flight, skipping")
		} else {
			c.logger.Warn("acquiring scan lock", "error", err)
		}
		return
	}
	defer guard.Release()

	if err := c.scanner.Rescan(); err != nil {
		c.logger.Debug("rescan trigger", "error", err)
	}
	aps, err := c.scanner.AccessPoints()
	if err != nil {
		c.logger.Warn("scan failed", "error", err)
		return
	}
	if err := c.cache.Write(aps); err != nil {
		c.logger.Warn("writing scan cache", "error", err)
	}
}

// Wait blocks until all background refreshes started by EnsureFresh have
// finished.
func (c *Coordinator) Wait() {
	c.bg.Wait()
}

// Remaining reports how long the current snapshot stays fresh.
func (c *Coordinator) Remaining() time.Duration {
	return c.cache.Remaining(c.ttl)
}
