package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/eon-ic/rofi-rwifi/wifi"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "cache.json"))
}

func at(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

var testAPs = []wifi.AccessPoint{
	{SSID: "Home", Security: wifi.SecurityWPA2, Signal: 87, Bars: "▂▄▆█", InUse: true},
	{SSID: "Cafe", Security: wifi.SecurityOpen, Signal: 45, Bars: "▂▄__"},
}

func TestReadTTLBoundaries(t *testing.T) {
	s := testStore(t)
	s.now = at(1000)
	if err := s.Write(testAPs); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	s.now = at(1020)
	got, ok := s.Read(30 * time.Second)
	if !ok {
		t.Fatal("Read() missed inside the TTL window")
	}
	if !reflect.DeepEqual(got, testAPs) {
		t.Errorf("Read() got = %v, want %v", got, testAPs)
	}

	s.now = at(1030)
	if _, ok := s.Read(30 * time.Second); ok {
		t.Error("Read() hit exactly at expiry; want miss")
	}

	s.now = at(1031)
	if _, ok := s.Read(30 * time.Second); ok {
		t.Error("Read() hit after expiry; want miss")
	}
}

func TestRemaining(t *testing.T) {
	s := testStore(t)

	if got := s.Remaining(30 * time.Second); got != 0 {
		t.Errorf("Remaining() with no file = %v, want 0", got)
	}

	s.now = at(1000)
	if err := s.Write(testAPs); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	s.now = at(1020)
	if got := s.Remaining(30 * time.Second); got != 10*time.Second {
		t.Errorf("Remaining() = %v, want 10s", got)
	}

	s.now = at(1031)
	if got := s.Remaining(30 * time.Second); got != 0 {
		t.Errorf("Remaining() after expiry = %v, want 0", got)
	}
}

func TestCorruptFileIsAMiss(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.path, []byte("{truncated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Read(time.Hour); ok {
		t.Error("Read() of a corrupt file hit; want miss")
	}
	if got := s.Remaining(time.Hour); got != 0 {
		t.Errorf("Remaining() of a corrupt file = %v, want 0", got)
	}
}

func TestWriteReplacesWholesale(t *testing.T) {
	s := testStore(t)
	if err := s.Write(testAPs); err != nil {
		t.Fatal(err)
	}
	replacement := []wifi.AccessPoint{{SSID: "Only", Signal: 10}}
	if err := s.Write(replacement); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Read(time.Hour)
	if !ok {
		t.Fatal("Read() missed after write")
	}
	if !reflect.DeepEqual(got, replacement) {
		t.Errorf("Read() got = %v, want replacement snapshot %v", got, replacement)
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	s := testStore(t)
	if err := s.Write(testAPs); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(s.path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Write()")
	}
}

func TestConcurrentReadersNeverSeePartialSnapshot(t *testing.T) {
	s := testStore(t)

	// Two snapshots of different lengths: a torn write would surface as a
	// parse failure (miss) or a mix of the two, never as either whole list.
	a := []wifi.AccessPoint{{SSID: "AlphaAlphaAlphaAlpha", Signal: 90}}
	b := []wifi.AccessPoint{
		{SSID: "Beta", Signal: 80},
		{SSID: "Gamma", Signal: 70},
		{SSID: "Delta", Signal: 60},
	}
	if err := s.Write(a); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			next := a
			if i%2 == 0 {
				next = b
			}
			if err := s.Write(next); err != nil {
				t.Errorf("Write() during interleaving: %v", err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		got, ok := s.Read(time.Hour)
		if !ok {
			t.Fatal("Read() missed mid-write; rename must keep a snapshot visible")
		}
		if !reflect.DeepEqual(got, a) && !reflect.DeepEqual(got, b) {
			t.Fatalf("Read() observed a partial snapshot: %v", got)
		}
	}
}

func TestInvalidate(t *testing.T) {
	s := testStore(t)
	s.Invalidate() // no file: must not fail

	if err := s.Write(testAPs); err != nil {
		t.Fatal(err)
	}
	s.Invalidate()
	if _, ok := s.Read(time.Hour); ok {
		t.Error("Read() hit after Invalidate()")
	}
}
