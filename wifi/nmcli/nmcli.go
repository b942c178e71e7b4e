//go:build linux

// Package nmcli implements wifi.Backend by shelling out to the nmcli and
// ping binaries. It is the primary backend: unlike the D-Bus path it sees
// NetworkManager's human-facing error text, which is what the connection
// failure classifier works on.
package nmcli

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/eon-ic/rofi-rwifi/wifi"
	"github.com/eon-ic/rofi-rwifi/wifi/ping"
)

// dhcpSettle is how long to wait after a successful association before
// asking for the assigned address.
const dhcpSettle = 500 * time.Millisecond

// Backend shells out to nmcli for every operation.
type Backend struct {
	logger *slog.Logger
}

// New returns an nmcli-backed wifi.Backend, or ErrNotAvailable when the
// binary is not on PATH.
func New(logger *slog.Logger) (wifi.Backend, error) {
	if _, err := exec.LookPath("nmcli"); err != nil {
		return nil, fmt.Errorf("nmcli not found: %w", wifi.ErrNotAvailable)
	}
	return &Backend{logger: logger}, nil
}

// output runs nmcli with args and returns its stdout.
func (b *Backend) output(args ...string) (string, error) {
	out, err := exec.Command("nmcli", args...).Output()
	if err != nil {
		return "", fmt.Errorf("nmcli %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// run runs nmcli with args, caring only about success.
func (b *Backend) run(args ...string) error {
	if err := exec.Command("nmcli", args...).Run(); err != nil {
		return fmt.Errorf("nmcli %s: %w", strings.Join(args, " "), wifi.ErrOperationFailed)
	}
	return nil
}

func (b *Backend) Rescan() error {
	return b.run("dev", "wifi", "rescan")
}

func (b *Backend) AccessPoints() ([]wifi.AccessPoint, error) {
	out, err := b.output("--fields", "IN-USE,SSID,SECURITY,SIGNAL,BARS", "--terse", "device", "wifi", "list")
	if err != nil {
		return nil, err
	}
	aps := parseAccessPoints(out)
	wifi.SortAccessPoints(aps)
	return wifi.DedupeAccessPoints(aps), nil
}

// parseAccessPoints parses terse `device wifi list` output.
func parseAccessPoints(out string) []wifi.AccessPoint {
	var aps []wifi.AccessPoint
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "--") {
			continue
		}
		if ap, ok := parseAccessPointLine(line); ok {
			aps = append(aps, ap)
		}
	}
	return aps
}

// parseAccessPointLine parses one IN-USE:SSID:SECURITY:SIGNAL:BARS row.
// nmcli separates terse fields with ':' but an SSID may itself contain one,
// so split from both ends: IN-USE is first, SIGNAL and BARS are last.
func parseAccessPointLine(line string) (wifi.AccessPoint, bool) {
	parts := strings.Split(line, ":")
	if len(parts) < 5 {
		return wifi.AccessPoint{}, false
	}

	inUse := strings.TrimSpace(parts[0]) == "*"
	bars := strings.TrimSpace(parts[len(parts)-1])
	signal, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-2]))
	if err != nil {
		signal = 0
	}
	security := strings.TrimSpace(parts[len(parts)-3])
	ssid := strings.TrimSpace(strings.Join(parts[1:len(parts)-3], ":"))

	if ssid == "" || ssid == "--" {
		return wifi.AccessPoint{}, false
	}
	return wifi.AccessPoint{
		SSID:     ssid,
		Security: wifi.ParseSecurity(security),
		Signal:   signal,
		Bars:     bars,
		InUse:    inUse,
	}, true
}

func (b *Backend) RadioEnabled() (bool, error) {
	out, err := b.output("radio", "wifi")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "enabled"), nil
}

func (b *Backend) SetRadio(enabled bool) error {
	arg := "off"
	if enabled {
		arg = "on"
	}
	return b.run("radio", "wifi", arg)
}

func (b *Backend) ActiveSSID() (string, bool) {
	out, err := b.output("-t", "-f", "active,ssid", "dev", "wifi")
	if err != nil {
		return "", false
	}
	return parseActiveSSID(out)
}

func parseActiveSSID(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		if ssid, ok := strings.CutPrefix(line, "yes:"); ok && ssid != "" {
			return ssid, true
		}
	}
	return "", false
}

func (b *Backend) SavedNetworks() ([]string, error) {
	out, err := b.output("-t", "-f", "NAME,TYPE", "connection", "show")
	if err != nil {
		return nil, err
	}
	return parseSavedNetworks(out), nil
}

func parseSavedNetworks(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "wireless") {
			continue
		}
		if idx := strings.LastIndex(line, ":"); idx > 0 {
			names = append(names, line[:idx])
		}
	}
	return names
}

func (b *Backend) SavedSecret(ssid string) (string, error) {
	out, err := b.output("-s", "-t", "-f", "802-11-wireless-security.psk", "connection", "show", ssid)
	if err != nil {
		return "", fmt.Errorf("secret for %s: %w", ssid, wifi.ErrNotFound)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "802-11-wireless-security.psk:") {
			return strings.TrimPrefix(line, "802-11-wireless-security.psk:"), nil
		}
	}
	return "", nil
}

func (b *Backend) ActivateSaved(ssid string, timeout time.Duration) error {
	secs := strconv.Itoa(int(timeout / time.Second))
	if err := exec.Command("nmcli", "--wait", secs, "connection", "up", ssid).Run(); err != nil {
		return fmt.Errorf("bringing up %s: %w", ssid, wifi.ErrOperationFailed)
	}
	return nil
}

func (b *Backend) Connect(ssid, password string, timeout time.Duration) wifi.ConnectOutcome {
	args := []string{"--wait", strconv.Itoa(int(timeout / time.Second)), "dev", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}

	out, err := exec.Command("nmcli", args...).CombinedOutput()
	if err == nil {
		time.Sleep(dhcpSettle)
		ip, _ := b.CurrentIP()
		return wifi.ConnectOutcome{Status: wifi.ConnectSuccess, IP: ip}
	}

	// nmcli leaves a half-created profile behind on failure; remove it so a
	// retry starts clean and the SSID does not show up as saved.
	if delErr := b.run("connection", "delete", ssid); delErr != nil {
		b.logger.Debug("cleanup of failed profile", "ssid", ssid, "error", delErr)
	}
	return wifi.ClassifyConnectOutput(string(out))
}

func (b *Backend) Disconnect(ssid string) error {
	return b.run("connection", "down", ssid)
}

func (b *Backend) Forget(name string) error {
	return b.run("connection", "delete", name)
}

func (b *Backend) ActiveHotspot() (string, bool) {
	out, err := b.output("-t", "-f", "NAME,DEVICE", "connection", "show", "--active")
	if err != nil {
		return "", false
	}
	return findHotspot(out)
}

func (b *Backend) HotspotProfile() (string, bool) {
	out, err := b.output("-t", "-f", "NAME,TYPE", "connection", "show")
	if err != nil {
		return "", false
	}
	return findHotspot(out)
}

// findHotspot returns the first profile name containing "hotspot".
func findHotspot(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		name, _, ok := strings.Cut(line, ":")
		if ok && strings.Contains(strings.ToLower(name), "hotspot") {
			return name, true
		}
	}
	return "", false
}

func (b *Backend) CreateHotspot(ssid, password string) error {
	err := b.run("con", "add",
		"type", "wifi",
		"ifname", "*",
		"con-name", "Hotspot",
		"autoconnect", "no",
		"ssid", ssid,
		"802-11-wireless.mode", "ap",
		"802-11-wireless-security.key-mgmt", "wpa-psk",
		"802-11-wireless-security.psk", password,
		"ipv4.method", "shared")
	if err != nil {
		return fmt.Errorf("creating hotspot: %w", err)
	}
	return b.ProfileUp("Hotspot")
}

func (b *Backend) ProfileUp(name string) error {
	return b.run("connection", "up", name)
}

func (b *Backend) ProfileDown(name string) error {
	return b.run("connection", "down", name)
}

func (b *Backend) CurrentIP() (string, bool) {
	out, err := b.output("-t", "-f", "IP4.ADDRESS", "dev", "show")
	if err != nil {
		return "", false
	}
	ip, _, _ := parseDevInfo(out)
	return ip, ip != ""
}

func (b *Backend) Details(ssid, pingHost string) (wifi.ConnectionDetails, error) {
	out, err := b.output("-t", "-f", "IP4.ADDRESS,IP4.GATEWAY,IP4.DNS", "dev", "show")
	if err != nil {
		return wifi.ConnectionDetails{}, err
	}
	ip, gateway, dns := parseDevInfo(out)

	signal := b.activeField("IN-USE,SIGNAL")
	security := b.activeField("IN-USE,SECURITY")

	return wifi.ConnectionDetails{
		SSID:     ssid,
		IP:       ip,
		Gateway:  gateway,
		DNS:      dns,
		Security: security,
		Signal:   signal,
		Probe:    b.Ping(pingHost, 1),
	}, nil
}

// activeField returns the second terse field of the in-use wifi row.
func (b *Backend) activeField(fields string) string {
	out, err := b.output("-t", "-f", fields, "dev", "wifi")
	if err != nil {
		return "--"
	}
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "*:"); ok {
			return v
		}
	}
	return "--"
}

// parseDevInfo extracts the primary address, gateway and DNS servers from
// terse `dev show` output.
func parseDevInfo(out string) (ip, gateway, dns string) {
	var servers []string
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch {
		case key == "IP4.ADDRESS[1]" && ip == "":
			ip = value
		case key == "IP4.GATEWAY" && gateway == "" && value != "":
			gateway = value
		case strings.HasPrefix(key, "IP4.DNS"):
			servers = append(servers, value)
		}
	}
	dns = strings.Join(servers, ", ")
	return ip, gateway, dns
}

func (b *Backend) Ping(host string, count int) wifi.ProbeResult {
	return ping.Probe(host, count)
}
