//go:build !linux

package main

import (
	"fmt"
	"log/slog"

	"github.com/eon-ic/rofi-rwifi/wifi"
)

// GetBackend returns an error for unsupported operating systems.
func GetBackend(logger *slog.Logger) (wifi.Backend, error) {
	return nil, fmt.Errorf("unsupported operating system")
}
