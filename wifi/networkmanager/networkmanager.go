//go:build linux

// Package networkmanager implements wifi.Backend over NetworkManager's
// D-Bus API. It is the fallback for hosts without the nmcli binary. The
// D-Bus path has no error text to classify, so connect failures are mapped
// from activation state transitions instead.
package networkmanager

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Wifx/gonetworkmanager/v3"
	"github.com/google/uuid"

	"github.com/eon-ic/rofi-rwifi/wifi"
	"github.com/eon-ic/rofi-rwifi/wifi/ping"
)

// Backend talks to NetworkManager over the system bus.
type Backend struct {
	nm       gonetworkmanager.NetworkManager
	settings gonetworkmanager.Settings
	logger   *slog.Logger
}

// New creates a D-Bus backed wifi.Backend, or ErrNotAvailable when
// NetworkManager is not reachable on the system bus.
func New(logger *slog.Logger) (wifi.Backend, error) {
	nm, err := gonetworkmanager.NewNetworkManager()
	if err != nil {
		return nil, fmt.Errorf("connecting to NetworkManager: %w", wifi.ErrNotAvailable)
	}
	settings, err := gonetworkmanager.NewSettings()
	if err != nil {
		return nil, fmt.Errorf("reading NetworkManager settings: %w", wifi.ErrOperationFailed)
	}
	return &Backend{nm: nm, settings: settings, logger: logger}, nil
}

// wirelessDevice returns the first wifi device.
func (b *Backend) wirelessDevice() (gonetworkmanager.DeviceWireless, error) {
	devices, err := b.nm.GetDevices()
	if err != nil {
		return nil, err
	}
	for _, device := range devices {
		if dev, ok := device.(gonetworkmanager.DeviceWireless); ok {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no wireless device: %w", wifi.ErrNotFound)
}

func (b *Backend) Rescan() error {
	dev, err := b.wirelessDevice()
	if err != nil {
		return err
	}
	return dev.RequestScan()
}

func (b *Backend) AccessPoints() ([]wifi.AccessPoint, error) {
	dev, err := b.wirelessDevice()
	if err != nil {
		return nil, err
	}
	accessPoints, err := dev.GetAccessPoints()
	if err != nil {
		return nil, err
	}

	var activeSSID string
	if active, err := dev.GetPropertyActiveAccessPoint(); err == nil && active != nil {
		activeSSID, _ = active.GetPropertySSID()
	}

	var aps []wifi.AccessPoint
	for _, ap := range accessPoints {
		ssid, err := ap.GetPropertySSID()
		if err != nil || ssid == "" {
			continue
		}
		strength, _ := ap.GetPropertyStrength()
		aps = append(aps, wifi.AccessPoint{
			SSID:     ssid,
			Security: apSecurity(ap),
			Signal:   int(strength),
			Bars:     bars(int(strength)),
			InUse:    activeSSID != "" && ssid == activeSSID,
		})
	}

	wifi.SortAccessPoints(aps)
	return wifi.DedupeAccessPoints(aps), nil
}

// apSecurity derives a security class from the AP's capability flags.
func apSecurity(ap gonetworkmanager.AccessPoint) wifi.Security {
	flags, _ := ap.GetPropertyFlags()
	wpaFlags, _ := ap.GetPropertyWPAFlags()
	rsnFlags, _ := ap.GetPropertyRSNFlags()
	switch {
	case rsnFlags > 0:
		return wifi.SecurityWPA2
	case wpaFlags > 0:
		return wifi.SecurityWPA
	case uint32(flags)&uint32(gonetworkmanager.Nm80211APFlagsPrivacy) != 0:
		return wifi.SecurityWEP
	default:
		return wifi.SecurityOpen
	}
}

// bars renders a signal strength as nmcli-style glyphs.
func bars(signal int) string {
	switch {
	case signal > 75:
		return "▂▄▆█"
	case signal > 50:
		return "▂▄▆_"
	case signal > 25:
		return "▂▄__"
	case signal > 5:
		return "▂___"
	default:
		return "____"
	}
}

func (b *Backend) RadioEnabled() (bool, error) {
	return b.nm.GetPropertyWirelessEnabled()
}

func (b *Backend) SetRadio(enabled bool) error {
	return b.nm.SetPropertyWirelessEnabled(enabled)
}

func (b *Backend) ActiveSSID() (string, bool) {
	dev, err := b.wirelessDevice()
	if err != nil {
		return "", false
	}
	active, err := dev.GetPropertyActiveAccessPoint()
	if err != nil || active == nil {
		return "", false
	}
	ssid, err := active.GetPropertySSID()
	return ssid, err == nil && ssid != ""
}

// savedConnection finds a stored wireless profile whose id or SSID matches.
func (b *Backend) savedConnection(name string) (gonetworkmanager.Connection, error) {
	conns, err := b.settings.ListConnections()
	if err != nil {
		return nil, err
	}
	for _, conn := range conns {
		s, err := conn.GetSettings()
		if err != nil {
			continue
		}
		if id, ok := s["connection"]["id"].(string); ok && id == name {
			return conn, nil
		}
		if wireless, ok := s["802-11-wireless"]; ok {
			if ssid, ok := wireless["ssid"].([]byte); ok && string(ssid) == name {
				return conn, nil
			}
		}
	}
	return nil, fmt.Errorf("profile %s: %w", name, wifi.ErrNotFound)
}

func (b *Backend) SavedNetworks() ([]string, error) {
	conns, err := b.settings.ListConnections()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, conn := range conns {
		s, err := conn.GetSettings()
		if err != nil {
			continue
		}
		if t, ok := s["connection"]["type"].(string); !ok || t != "802-11-wireless" {
			continue
		}
		if id, ok := s["connection"]["id"].(string); ok {
			names = append(names, id)
		}
	}
	return names, nil
}

func (b *Backend) SavedSecret(ssid string) (string, error) {
	conn, err := b.savedConnection(ssid)
	if err != nil {
		return "", err
	}
	secrets, err := conn.GetSecrets("802-11-wireless-security")
	if err != nil {
		return "", fmt.Errorf("secrets for %s: %w", ssid, wifi.ErrOperationFailed)
	}
	if s, ok := secrets["802-11-wireless-security"]; ok {
		if psk, ok := s["psk"].(string); ok {
			return psk, nil
		}
	}
	return "", nil
}

func (b *Backend) ActivateSaved(ssid string, timeout time.Duration) error {
	conn, err := b.savedConnection(ssid)
	if err != nil {
		return err
	}
	dev, err := b.wirelessDevice()
	if err != nil {
		return err
	}
	active, err := b.nm.ActivateConnection(conn, dev, nil)
	if err != nil {
		return err
	}
	if outcome := b.waitActivation(active, timeout, true); outcome.Status != wifi.ConnectSuccess {
		return fmt.Errorf("bringing up %s: %w", ssid, wifi.ErrOperationFailed)
	}
	return nil
}

func (b *Backend) Connect(ssid, password string, timeout time.Duration) wifi.ConnectOutcome {
	dev, err := b.wirelessDevice()
	if err != nil {
		return wifi.ConnectOutcome{Status: wifi.ConnectFailed, Message: err.Error()}
	}
	deviceInterface, _ := dev.GetPropertyInterface()

	connection := map[string]map[string]interface{}{
		"connection": {
			"id":             ssid,
			"uuid":           uuid.New().String(),
			"type":           "802-11-wireless",
			"interface-name": deviceInterface,
			"autoconnect":    true,
		},
		"802-11-wireless": {
			"mode": "infrastructure",
			"ssid": []byte(ssid),
		},
		"ipv4": {"method": "auto"},
		"ipv6": {"method": "auto"},
	}
	if password != "" {
		connection["802-11-wireless"]["security"] = "802-11-wireless-security"
		connection["802-11-wireless-security"] = map[string]interface{}{
			"key-mgmt": "wpa-psk",
			"psk":      password,
		}
	}

	active, err := b.nm.AddAndActivateConnection(connection, dev)
	if err != nil {
		return wifi.ConnectOutcome{Status: wifi.ConnectFailed, Message: err.Error()}
	}

	outcome := b.waitActivation(active, timeout, password != "")
	if outcome.Status != wifi.ConnectSuccess {
		// Drop the half-created profile so a retry starts clean.
		if conn, findErr := b.savedConnection(ssid); findErr == nil {
			if delErr := conn.Delete(); delErr != nil {
				b.logger.Debug("cleanup of failed profile", "ssid", ssid, "error", delErr)
			}
		}
		return outcome
	}

	if ip, ok := b.CurrentIP(); ok {
		outcome.IP = ip
	}
	return outcome
}

// waitActivation blocks until the activation reaches a terminal state. A
// deactivation is read as a credential failure when a secret was supplied;
// the state signal carries no error text to classify.
func (b *Backend) waitActivation(active gonetworkmanager.ActiveConnection, timeout time.Duration, hadSecret bool) wifi.ConnectOutcome {
	stateChanges := make(chan gonetworkmanager.StateChange, 1)
	done := make(chan struct{})
	defer close(done)
	if err := active.SubscribeState(stateChanges, done); err != nil {
		return wifi.ConnectOutcome{Status: wifi.ConnectFailed, Message: err.Error()}
	}

	if state, err := active.GetPropertyState(); err == nil && state == gonetworkmanager.NmActiveConnectionStateActivated {
		return wifi.ConnectOutcome{Status: wifi.ConnectSuccess}
	}

	deadline := time.After(timeout)
	for {
		select {
		case change := <-stateChanges:
			switch change.State {
			case gonetworkmanager.NmActiveConnectionStateActivated:
				return wifi.ConnectOutcome{Status: wifi.ConnectSuccess}
			case gonetworkmanager.NmActiveConnectionStateDeactivated:
				if hadSecret {
					return wifi.ConnectOutcome{Status: wifi.ConnectWrongPassword}
				}
				return wifi.ConnectOutcome{Status: wifi.ConnectFailed, Message: "connection failed"}
			}
		case <-deadline:
			return wifi.ConnectOutcome{Status: wifi.ConnectTimeout}
		}
	}
}

// activeConnection finds the active connection whose id matches name.
func (b *Backend) activeConnection(name string) (gonetworkmanager.ActiveConnection, error) {
	actives, err := b.nm.GetPropertyActiveConnections()
	if err != nil {
		return nil, err
	}
	for _, active := range actives {
		id, err := active.GetPropertyID()
		if err != nil {
			continue
		}
		if id == name {
			return active, nil
		}
	}
	return nil, fmt.Errorf("active connection %s: %w", name, wifi.ErrNotFound)
}

func (b *Backend) Disconnect(ssid string) error {
	active, err := b.activeConnection(ssid)
	if err != nil {
		return err
	}
	return b.nm.DeactivateConnection(active)
}

func (b *Backend) Forget(name string) error {
	conn, err := b.savedConnection(name)
	if err != nil {
		return err
	}
	return conn.Delete()
}

func (b *Backend) ActiveHotspot() (string, bool) {
	actives, err := b.nm.GetPropertyActiveConnections()
	if err != nil {
		return "", false
	}
	for _, active := range actives {
		if id, err := active.GetPropertyID(); err == nil && isHotspotName(id) {
			return id, true
		}
	}
	return "", false
}

func (b *Backend) HotspotProfile() (string, bool) {
	names, err := b.SavedNetworks()
	if err != nil {
		return "", false
	}
	for _, name := range names {
		if isHotspotName(name) {
			return name, true
		}
	}
	return "", false
}

func isHotspotName(name string) bool {
	return strings.Contains(strings.ToLower(name), "hotspot")
}

func (b *Backend) CreateHotspot(ssid, password string) error {
	dev, err := b.wirelessDevice()
	if err != nil {
		return err
	}
	connection := map[string]map[string]interface{}{
		"connection": {
			"id":          "Hotspot",
			"uuid":        uuid.New().String(),
			"type":        "802-11-wireless",
			"autoconnect": false,
		},
		"802-11-wireless": {
			"mode":     "ap",
			"ssid":     []byte(ssid),
			"security": "802-11-wireless-security",
		},
		"802-11-wireless-security": {
			"key-mgmt": "wpa-psk",
			"psk":      password,
		},
		"ipv4": {"method": "shared"},
	}
	_, err = b.nm.AddAndActivateConnection(connection, dev)
	return err
}

func (b *Backend) ProfileUp(name string) error {
	conn, err := b.savedConnection(name)
	if err != nil {
		return err
	}
	dev, err := b.wirelessDevice()
	if err != nil {
		return err
	}
	_, err = b.nm.ActivateConnection(conn, dev, nil)
	return err
}

func (b *Backend) ProfileDown(name string) error {
	active, err := b.activeConnection(name)
	if err != nil {
		return err
	}
	return b.nm.DeactivateConnection(active)
}

func (b *Backend) CurrentIP() (string, bool) {
	dev, err := b.wirelessDevice()
	if err != nil {
		return "", false
	}
	ip4, err := dev.GetPropertyIP4Config()
	if err != nil || ip4 == nil {
		return "", false
	}
	addresses, err := ip4.GetPropertyAddressData()
	if err != nil || len(addresses) == 0 {
		return "", false
	}
	return fmt.Sprintf("%s/%d", addresses[0].Address, addresses[0].Prefix), true
}

func (b *Backend) Details(ssid, pingHost string) (wifi.ConnectionDetails, error) {
	details := wifi.ConnectionDetails{SSID: ssid, Security: "--", Signal: "--"}

	dev, err := b.wirelessDevice()
	if err != nil {
		return details, err
	}
	if ip4, err := dev.GetPropertyIP4Config(); err == nil && ip4 != nil {
		if addresses, err := ip4.GetPropertyAddressData(); err == nil && len(addresses) > 0 {
			details.IP = fmt.Sprintf("%s/%d", addresses[0].Address, addresses[0].Prefix)
		}
		if gateway, err := ip4.GetPropertyGateway(); err == nil {
			details.Gateway = gateway
		}
		if nameservers, err := ip4.GetPropertyNameserverData(); err == nil {
			var servers []string
			for _, ns := range nameservers {
				servers = append(servers, ns.Address)
			}
			details.DNS = strings.Join(servers, ", ")
		}
	}
	if active, err := dev.GetPropertyActiveAccessPoint(); err == nil && active != nil {
		if strength, err := active.GetPropertyStrength(); err == nil {
			details.Signal = fmt.Sprintf("%d", strength)
		}
		details.Security = apSecurity(active).String()
	}

	details.Probe = b.Ping(pingHost, 1)
	return details, nil
}

func (b *Backend) Ping(host string, count int) wifi.ProbeResult {
	return ping.Probe(host, count)
}
