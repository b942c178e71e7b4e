// Package config loads the user configuration and decides where runtime
// state lives.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the user-tunable configuration. Durations are whole seconds in
// the file; use the accessor methods for time.Duration values.
type Config struct {
	Font     string `toml:"font"`
	Position int    `toml:"position"` // rofi -location, 0-8
	XOffset  int    `toml:"x_offset"`
	YOffset  int    `toml:"y_offset"`
	MaxLines int    `toml:"max_lines"`

	ConnectTimeout int `toml:"connect_timeout"` // seconds
	MaxRetry       int `toml:"max_retry"`
	CacheTTL       int `toml:"cache_ttl"` // seconds
	StaleFactor    int `toml:"stale_factor"`

	PingHost  string `toml:"ping_host"`
	PingCount int    `toml:"ping_count"`

	// AutoVPN maps an SSID to the VPN profiles to bring up after joining it.
	AutoVPN map[string][]string `toml:"auto_vpn"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Font:           "DejaVu Sans Mono 12",
		Position:       0,
		MaxLines:       14,
		ConnectTimeout: 25,
		MaxRetry:       3,
		CacheTTL:       30,
		StaleFactor:    10,
		PingHost:       "1.1.1.1",
		PingCount:      3,
	}
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

func (c Config) TTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// candidatePaths returns the config file locations in lookup order.
func candidatePaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "rofi", "rwifi.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rofi", "rwifi.toml"))
	}
	return paths
}

// Load returns the first readable config file merged over the defaults, or
// the defaults alone when no file exists. A file that exists but fails to
// parse is an error; silently ignoring it would hide typos forever.
func Load() (Config, error) {
	for _, path := range candidatePaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return load(path)
	}
	return Default(), nil
}

func load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.StaleFactor < 1 {
		cfg.StaleFactor = 1
	}
	return cfg, nil
}

// runtimeDir is where the cache, lock and pid files live. Per-user tmpfs
// when available, /tmp otherwise.
func runtimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

func CachePath() string {
	return filepath.Join(runtimeDir(), "rwifi-scan.json")
}

func LockPath() string {
	return filepath.Join(runtimeDir(), "rwifi-scan.lock")
}

func PIDPath() string {
	return filepath.Join(runtimeDir(), "rwifi-daemon.pid")
}
