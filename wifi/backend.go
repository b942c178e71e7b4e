package wifi

import (
	"fmt"
	"strings"
	"time"
)

// Security is the security class of an access point. Known classes are the
// constants below; any other value carries the raw scanner descriptor so an
// unrecognized flavor still round-trips through the cache unchanged.
type Security string

const (
	SecurityOpen Security = "open"
	SecurityWEP  Security = "wep"
	SecurityWPA  Security = "wpa"
	SecurityWPA2 Security = "wpa2"
	SecurityWPA3 Security = "wpa3"
)

// ParseSecurity maps a raw descriptor (e.g. nmcli's "WPA2 802.1X") to a
// Security class. An empty or "--" descriptor means an open network.
func ParseSecurity(raw string) Security {
	up := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(up, "WPA3"):
		return SecurityWPA3
	case strings.Contains(up, "WPA2"):
		return SecurityWPA2
	case strings.Contains(up, "WPA"):
		return SecurityWPA
	case strings.Contains(up, "WEP"):
		return SecurityWEP
	case up == "" || up == "--":
		return SecurityOpen
	default:
		return Security(raw)
	}
}

// NeedsPassword reports whether joining a network of this class requires a
// credential.
func (s Security) NeedsPassword() bool {
	return s != SecurityOpen
}

func (s Security) String() string {
	switch s {
	case SecurityOpen:
		return "Open"
	case SecurityWEP:
		return "WEP"
	case SecurityWPA:
		return "WPA"
	case SecurityWPA2:
		return "WPA2"
	case SecurityWPA3:
		return "WPA3"
	default:
		return string(s)
	}
}

// AccessPoint is one discovered network. Identity for deduplication is
// (SSID, InUse); see DedupeAccessPoints.
type AccessPoint struct {
	SSID     string   `json:"ssid"`
	Security Security `json:"security"`
	Signal   int      `json:"signal"` // 0-100
	Bars     string   `json:"bars"`   // display-only glyphs from the scanner
	InUse    bool     `json:"in_use"`
}

// DisplayLine renders the access point as a single launcher menu row.
func (ap AccessPoint) DisplayLine() string {
	lock := "🔒 "
	switch ap.Security {
	case SecurityOpen:
		lock = "   "
	case SecurityWEP:
		lock = "🔓 "
	}
	active := "  "
	if ap.InUse {
		active = "● "
	}
	return fmt.Sprintf("%s%s%-20s  %s  %3d%%", active, lock, ap.SSID, ap.Bars, ap.Signal)
}

// ConnectStatus classifies the result of a single connection attempt.
type ConnectStatus int

const (
	ConnectSuccess ConnectStatus = iota
	ConnectWrongPassword
	ConnectTimeout
	ConnectFailed
)

// ConnectOutcome is the classified result of one external connect operation.
type ConnectOutcome struct {
	Status  ConnectStatus
	IP      string // acquired address, set on success
	Message string // failure detail, set on ConnectFailed
}

// ProbeResult is the outcome of a reachability check.
type ProbeResult struct {
	Reachable bool
	AvgRTT    float64 // milliseconds; zero when unknown
}

// ConnectionDetails describes the active connection for the details panel.
type ConnectionDetails struct {
	SSID     string
	IP       string
	Gateway  string
	DNS      string
	Security string
	Signal   string
	Probe    ProbeResult
}

// Backend defines the interface to the external network manager.
type Backend interface {
	// Rescan triggers a fresh scan without waiting for results.
	Rescan() error
	// AccessPoints returns the visible networks, sorted (associated first,
	// then signal descending) and deduplicated by (SSID, associated).
	AccessPoints() ([]AccessPoint, error)

	// RadioEnabled reports whether the wireless radio is on.
	RadioEnabled() (bool, error)
	// SetRadio enables or disables the wireless radio.
	SetRadio(enabled bool) error

	// ActiveSSID returns the currently associated SSID, if any.
	ActiveSSID() (string, bool)
	// SavedNetworks lists the names of stored wireless profiles.
	SavedNetworks() ([]string, error)
	// SavedSecret returns the stored passphrase for a profile.
	SavedSecret(ssid string) (string, error)

	// ActivateSaved brings up an existing profile, waiting at most timeout.
	ActivateSaved(ssid string, timeout time.Duration) error
	// Connect joins a new network and classifies the result. A failed
	// attempt must not leave a half-created profile behind.
	Connect(ssid, password string, timeout time.Duration) ConnectOutcome
	// Disconnect takes down the active connection for ssid.
	Disconnect(ssid string) error
	// Forget deletes a stored profile.
	Forget(name string) error

	// ActiveHotspot returns the name of a running hotspot profile, if any.
	ActiveHotspot() (string, bool)
	// HotspotProfile returns a stored (inactive) hotspot profile, if any.
	HotspotProfile() (string, bool)
	// CreateHotspot creates and activates a shared access point.
	CreateHotspot(ssid, password string) error
	// ProfileUp activates an arbitrary profile by name (hotspot, VPN).
	ProfileUp(name string) error
	// ProfileDown deactivates a profile by name.
	ProfileDown(name string) error

	// CurrentIP returns the primary IPv4 address, if one is assigned.
	CurrentIP() (string, bool)
	// Details gathers the details panel data, probing pingHost once.
	Details(ssid, pingHost string) (ConnectionDetails, error)
	// Ping checks reachability of host with count echo requests.
	Ping(host string, count int) ProbeResult
}
