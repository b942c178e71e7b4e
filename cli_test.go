package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eon-ic/rofi-rwifi/internal/cache"
	"github.com/eon-ic/rofi-rwifi/internal/refresh"
	"github.com/eon-ic/rofi-rwifi/wifi"
)

type staticScanner struct {
	aps []wifi.AccessPoint
}

func (s *staticScanner) Rescan() error { return nil }

func (s *staticScanner) AccessPoints() ([]wifi.AccessPoint, error) { return s.aps, nil }

func newTestCoordinator(t *testing.T, aps []wifi.AccessPoint) *refresh.Coordinator {
	t.Helper()
	dir := t.TempDir()
	return refresh.New(
		cache.New(filepath.Join(dir, "scan.json")),
		&staticScanner{aps: aps},
		filepath.Join(dir, "scan.lock"),
		30*time.Second, 10,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestRunScanText(t *testing.T) {
	coordinator := newTestCoordinator(t, []wifi.AccessPoint{
		{SSID: "HomeNet", Security: wifi.SecurityWPA2, Signal: 87, InUse: true},
		{SSID: "CafeFree", Security: wifi.SecurityOpen, Signal: 52},
	})

	var out strings.Builder
	if err := runScan(&out, false, coordinator); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "HomeNet") || !strings.HasSuffix(lines[0], "active") {
		t.Errorf("active line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "CafeFree") || strings.Contains(lines[1], "active") {
		t.Errorf("open line = %q", lines[1])
	}
}

func TestRunScanJSON(t *testing.T) {
	expected := []wifi.AccessPoint{{SSID: "HomeNet", Security: wifi.SecurityWPA2, Signal: 87}}
	coordinator := newTestCoordinator(t, expected)

	var out strings.Builder
	if err := runScan(&out, true, coordinator); err != nil {
		t.Fatal(err)
	}

	var decoded []wifi.AccessPoint
	if err := json.Unmarshal([]byte(out.String()), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if len(decoded) != 1 || decoded[0] != expected[0] {
		t.Errorf("decoded = %+v, want %+v", decoded, expected)
	}
}
