//go:build linux

package nmcli

import (
	"reflect"
	"testing"

	"github.com/eon-ic/rofi-rwifi/wifi"
)

func TestParseAccessPointLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected wifi.AccessPoint
		ok       bool
	}{
		{
			name: "Associated network",
			line: "*:HomeNet:WPA2:87:▂▄▆█",
			expected: wifi.AccessPoint{
				SSID: "HomeNet", Security: wifi.SecurityWPA2, Signal: 87, Bars: "▂▄▆█", InUse: true,
			},
			ok: true,
		},
		{
			name: "Open network",
			line: " :CoffeeShop::45:▂▄__",
			expected: wifi.AccessPoint{
				SSID: "CoffeeShop", Security: wifi.SecurityOpen, Signal: 45, Bars: "▂▄__",
			},
			ok: true,
		},
		{
			name: "SSID containing a colon",
			line: " :my:net:WPA1 WPA2:60:▂▄▆_",
			expected: wifi.AccessPoint{
				SSID: "my:net", Security: wifi.SecurityWPA2, Signal: 60, Bars: "▂▄▆_",
			},
			ok: true,
		},
		{
			name: "Hidden SSID placeholder skipped",
			line: " :--:WPA2:70:▂▄▆_",
			ok:   false,
		},
		{
			name: "Malformed line skipped",
			line: "garbage",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseAccessPointLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("parseAccessPointLine() ok = %v, want %v", ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("parseAccessPointLine() got = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestParseAccessPoints(t *testing.T) {
	out := "*:HomeNet:WPA2:87:▂▄▆█\n" +
		"--\n" +
		" :CoffeeShop::45:▂▄__\n" +
		"\n"
	got := parseAccessPoints(out)
	if len(got) != 2 {
		t.Fatalf("parseAccessPoints() returned %d entries, want 2", len(got))
	}
	if got[0].SSID != "HomeNet" || got[1].SSID != "CoffeeShop" {
		t.Errorf("unexpected SSIDs: %q, %q", got[0].SSID, got[1].SSID)
	}
}

func TestParseActiveSSID(t *testing.T) {
	out := "no:OtherNet\nyes:HomeNet\nno:Third\n"
	ssid, ok := parseActiveSSID(out)
	if !ok || ssid != "HomeNet" {
		t.Errorf("parseActiveSSID() = %q, %v; want HomeNet, true", ssid, ok)
	}

	if _, ok := parseActiveSSID("no:OtherNet\n"); ok {
		t.Error("parseActiveSSID() found a connection where none is active")
	}
}

func TestParseSavedNetworks(t *testing.T) {
	out := "HomeNet:802-11-wireless\nWired connection 1:802-3-ethernet\nOffice:802-11-wireless\n"
	got := parseSavedNetworks(out)
	expected := []string{"HomeNet", "Office"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("parseSavedNetworks() = %v, want %v", got, expected)
	}
}

func TestFindHotspot(t *testing.T) {
	out := "HomeNet:wlan0\nMy Hotspot:wlan1\n"
	name, ok := findHotspot(out)
	if !ok || name != "My Hotspot" {
		t.Errorf("findHotspot() = %q, %v; want \"My Hotspot\", true", name, ok)
	}
	if _, ok := findHotspot("HomeNet:wlan0\n"); ok {
		t.Error("findHotspot() matched a non-hotspot profile")
	}
}

func TestParseDevInfo(t *testing.T) {
	out := "IP4.ADDRESS[1]:192.168.1.23/24\n" +
		"IP4.GATEWAY:192.168.1.1\n" +
		"IP4.DNS[1]:1.1.1.1\n" +
		"IP4.DNS[2]:8.8.8.8\n"
	ip, gateway, dns := parseDevInfo(out)
	if ip != "192.168.1.23/24" {
		t.Errorf("ip = %q", ip)
	}
	if gateway != "192.168.1.1" {
		t.Errorf("gateway = %q", gateway)
	}
	if dns != "1.1.1.1, 8.8.8.8" {
		t.Errorf("dns = %q", dns)
	}
}
