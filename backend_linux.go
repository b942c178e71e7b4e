//go:build linux

package main

import (
	"log/slog"

	"github.com/eon-ic/rofi-rwifi/wifi"
	"github.com/eon-ic/rofi-rwifi/wifi/networkmanager"
	"github.com/eon-ic/rofi-rwifi/wifi/nmcli"
)

// GetBackend prefers the nmcli backend: its combined output feeds the
// connection failure classifier. The D-Bus backend covers hosts where the
// CLI tool is missing.
func GetBackend(logger *slog.Logger) (wifi.Backend, error) {
	b, err := nmcli.New(logger)
	if err == nil {
		return b, nil
	}
	logger.Warn("nmcli unavailable, falling back to the NetworkManager D-Bus backend", "error", err)
	return networkmanager.New(logger)
}
