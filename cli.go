package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/eon-ic/rofi-rwifi/internal/refresh"
)

// runScan forces a synchronous refresh and prints the resulting network
// list. This is the cache-priming entry point for scripts and keybindings.
func runScan(w io.Writer, asJSON bool, coordinator *refresh.Coordinator) error {
	aps := coordinator.EnsureFresh(true)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(aps)
	}

	for _, ap := range aps {
		inUse := ""
		if ap.InUse {
			inUse = "\tactive"
		}
		fmt.Fprintf(w, "%s\t%s\t%d%%%s\n", ap.SSID, ap.Security, ap.Signal, inUse)
	}
	return nil
}
