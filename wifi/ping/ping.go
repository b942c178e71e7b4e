// Package ping wraps the system ping binary as a reachability probe.
package ping

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/eon-ic/rofi-rwifi/wifi"
)

// Probe sends count echo requests to host with a 2 second per-packet
// deadline. Any failure, including a missing ping binary, reads as
// unreachable; the probe never returns an error.
func Probe(host string, count int) wifi.ProbeResult {
	out, err := exec.Command("ping", "-c", strconv.Itoa(count), "-W", "2", host).Output()
	if err != nil {
		return wifi.ProbeResult{}
	}
	rtt, _ := parseAvgRTT(string(out))
	return wifi.ProbeResult{Reachable: true, AvgRTT: rtt}
}

// parseAvgRTT extracts the average round-trip time from ping's summary line:
// "rtt min/avg/max/mdev = 1.2/3.4/5.6/0.1 ms".
func parseAvgRTT(out string) (float64, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "rtt") && !strings.Contains(line, "round-trip") {
			continue
		}
		parts := strings.Split(line, "/")
		if len(parts) < 5 {
			continue
		}
		if avg, err := strconv.ParseFloat(parts[4], 64); err == nil {
			return avg, true
		}
	}
	return 0, false
}
