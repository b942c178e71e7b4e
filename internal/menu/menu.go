// Package menu drives the interactive flow: render the network list plus
// action rows through the launcher, dispatch the selection, repeat until the
// user quits.
//
// Navigation follows one rule: dismissing the top-level menu quits, while
// dismissing anything nested only steps back to the top level. Actions that
// change network state request a forced rescan for the next pass.
package menu

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eon-ic/rofi-rwifi/internal/config"
	"github.com/eon-ic/rofi-rwifi/internal/connect"
	"github.com/eon-ic/rofi-rwifi/internal/launcher"
	"github.com/eon-ic/rofi-rwifi/internal/notify"
	"github.com/eon-ic/rofi-rwifi/wifi"
)

// Nav is the outcome of one menu pass.
type Nav int

const (
	NavBack Nav = iota
	NavRefresh
	NavQuit
)

func (n Nav) String() string {
	switch n {
	case NavBack:
		return "back"
	case NavRefresh:
		return "refresh"
	case NavQuit:
		return "quit"
	}
	return fmt.Sprintf("nav(%d)", int(n))
}

// Refresher is the cache-aware scan frontend.
type Refresher interface {
	EnsureFresh(force bool) []wifi.AccessPoint
	Remaining() time.Duration
}

// Loop owns one interactive session.
type Loop struct {
	Backend   wifi.Backend
	Refresh   Refresher
	Launch    launcher.Launcher
	Notify    notify.Notifier
	Connector *connect.Machine
	Logger    *slog.Logger
	Config    config.Config
	RenderQR  func(ssid, password string, security wifi.Security) (string, error)
	Settle    time.Duration // wait after enabling the radio before rescanning
}

type item struct {
	label  string
	active bool // highlight this row
	run    func() Nav
}

// Run shows the menu until the user quits.
func (l *Loop) Run() {
	force := false
	for {
		nav := l.runOnce(force)
		if nav == NavQuit {
			return
		}
		force = nav == NavRefresh
	}
}

func (l *Loop) runOnce(force bool) Nav {
	enabled, err := l.Backend.RadioEnabled()
	if err != nil {
		l.Logger.Warn("radio state unknown", "error", err)
		enabled = true
	}

	var aps []wifi.AccessPoint
	if enabled {
		aps = l.Refresh.EnsureFresh(force)
	}

	items := l.buildItems(enabled, aps)
	labels := make([]string, len(items))
	opts := launcher.Options{Highlight: -1, NoCustom: true}
	for i, it := range items {
		labels[i] = it.label
		if it.active {
			opts.Highlight = i
		}
	}
	if l.Config.MaxLines > 0 && len(labels) > l.Config.MaxLines {
		opts.Lines = l.Config.MaxLines
	} else {
		opts.Lines = len(labels)
	}
	if hasOpenNetwork(aps) {
		opts.Message = "⚠ unsecured networks in range"
	}

	selection, ok := l.Launch.Choose(labels, "wi-fi", opts)
	if !ok {
		return NavQuit
	}
	for _, it := range items {
		if it.label == selection {
			return it.run()
		}
	}
	return NavBack
}

func (l *Loop) buildItems(enabled bool, aps []wifi.AccessPoint) []item {
	if !enabled {
		return []item{{label: "📶  enable wi-fi", run: l.enableRadio}}
	}

	items := []item{
		{label: "📴  disable wi-fi", run: l.disableRadio},
		{label: l.refreshLabel(), run: func() Nav { return NavRefresh }},
		{label: "🖊  manual connection", run: l.manualEntry},
	}
	if ssid, ok := l.Backend.ActiveSSID(); ok {
		items = append(items,
			item{label: "⏏  disconnect " + ssid, run: func() Nav { return l.disconnect(ssid) }},
			item{label: "🔍  connection details", run: func() Nav { return l.details(ssid) }},
			item{label: "📱  qr code", run: func() Nav { return l.showQR(ssid, aps) }},
		)
	}
	items = append(items,
		item{label: l.hotspotLabel(), run: l.hotspot},
		item{label: "🗑  forget network", run: l.forget},
	)
	for _, ap := range aps {
		items = append(items, item{
			label:  ap.DisplayLine(),
			active: ap.InUse,
			run:    func() Nav { return l.selectNetwork(ap) },
		})
	}
	return items
}

func (l *Loop) refreshLabel() string {
	if remaining := l.Refresh.Remaining(); remaining > 0 {
		return fmt.Sprintf("🔄  refresh (cached %ds more)", int(remaining.Round(time.Second).Seconds()))
	}
	return "🔄  refresh"
}

func hasOpenNetwork(aps []wifi.AccessPoint) bool {
	for _, ap := range aps {
		if ap.Security == wifi.SecurityOpen && !ap.InUse {
			return true
		}
	}
	return false
}

func (l *Loop) enableRadio() Nav {
	if err := l.Backend.SetRadio(true); err != nil {
		l.Notify.Send(notify.Critical, "wi-fi", err.Error())
		return NavBack
	}
	// the radio needs a moment before a scan returns anything
	time.Sleep(l.Settle)
	return NavRefresh
}

func (l *Loop) disableRadio() Nav {
	if err := l.Backend.SetRadio(false); err != nil {
		l.Notify.Send(notify.Critical, "wi-fi", err.Error())
	}
	return NavBack
}

// selectNetwork joins the chosen row: the active network offers a
// disconnect, saved networks go through single-shot activation, and anything
// else enters the prompting connect flow. Unsecured targets ask first.
func (l *Loop) selectNetwork(ap wifi.AccessPoint) Nav {
	if ap.InUse {
		return l.disconnect(ap.SSID)
	}
	if saved, err := l.Backend.SavedNetworks(); err == nil {
		for _, name := range saved {
			if name == ap.SSID {
				l.Connector.Activate(ap.SSID)
				return NavRefresh
			}
		}
	}
	if !ap.Security.NeedsPassword() {
		if !l.Launch.Confirm(ap.SSID + " is unsecured, connect anyway?") {
			return NavBack
		}
	}
	l.Connector.Join(ap)
	return NavRefresh
}

func (l *Loop) manualEntry() Nav {
	entry, ok := l.Launch.Input("ssid[,password]: ")
	if !ok || strings.TrimSpace(entry) == "" {
		return NavBack
	}
	ssid, password, hasPassword := strings.Cut(entry, ",")
	ssid = strings.TrimSpace(ssid)
	if hasPassword {
		l.Connector.JoinWithSecret(ssid, strings.TrimSpace(password))
	} else {
		l.Connector.Join(wifi.AccessPoint{SSID: ssid, Security: wifi.SecurityWPA2})
	}
	return NavRefresh
}

func (l *Loop) disconnect(ssid string) Nav {
	if !l.Launch.Confirm("disconnect from " + ssid + "?") {
		return NavBack
	}
	if err := l.Backend.Disconnect(ssid); err != nil {
		l.Notify.Send(notify.Critical, "disconnect failed", err.Error())
		return NavBack
	}
	l.Notify.Send(notify.Normal, "disconnected", ssid)
	return NavRefresh
}

func (l *Loop) forget() Nav {
	saved, err := l.Backend.SavedNetworks()
	if err != nil || len(saved) == 0 {
		l.Notify.Send(notify.Normal, "forget", "no saved networks")
		return NavBack
	}
	opts := launcher.Options{Lines: min(len(saved), l.Config.MaxLines), Highlight: -1, NoCustom: true}
	name, ok := l.Launch.Choose(saved, "forget", opts)
	if !ok {
		return NavBack
	}
	if !l.Launch.Confirm("forget " + name + "?") {
		return NavBack
	}
	if err := l.Backend.Forget(name); err != nil {
		l.Notify.Send(notify.Critical, "forget failed", err.Error())
		return NavBack
	}
	l.Notify.Send(notify.Normal, "forgot network", name)
	return NavRefresh
}

func (l *Loop) details(ssid string) Nav {
	d, err := l.Backend.Details(ssid, l.Config.PingHost)
	if err != nil {
		l.Notify.Send(notify.Critical, "details unavailable", err.Error())
		return NavBack
	}
	lines := []string{
		"ssid      " + d.SSID,
		"ip        " + d.IP,
		"gateway   " + d.Gateway,
		"dns       " + d.DNS,
		"security  " + d.Security,
		"signal    " + d.Signal,
		probeLine(d.Probe, l.Config.PingHost),
	}
	l.Launch.ShowMessage("connection", lines, "")
	return NavBack
}

func probeLine(p wifi.ProbeResult, host string) string {
	if !p.Reachable {
		return "ping      " + host + " unreachable"
	}
	return fmt.Sprintf("ping      %s %.1f ms", host, p.AvgRTT)
}

func (l *Loop) showQR(ssid string, aps []wifi.AccessPoint) Nav {
	security := wifi.SecurityWPA2
	for _, ap := range aps {
		if ap.SSID == ssid {
			security = ap.Security
			break
		}
	}
	password := ""
	if security.NeedsPassword() {
		secret, err := l.Backend.SavedSecret(ssid)
		if err != nil {
			l.Notify.Send(notify.Critical, "qr code", "no stored secret for "+ssid)
			return NavBack
		}
		password = secret
	}
	code, err := l.RenderQR(ssid, password, security)
	if err != nil {
		l.Notify.Send(notify.Critical, "qr code", err.Error())
		return NavBack
	}
	l.Launch.Choose([]string{"back"}, "scan to join "+ssid, launcher.Options{
		Lines:     1,
		Highlight: -1,
		Message:   strings.TrimRight(code, "\n"),
		Font:      "monospace 9",
		NoCustom:  true,
	})
	return NavBack
}

func (l *Loop) hotspotLabel() string {
	if name, ok := l.Backend.ActiveHotspot(); ok {
		return "📡  close hotspot " + name
	}
	return "📡  start hotspot"
}

func (l *Loop) hotspot() Nav {
	if name, ok := l.Backend.ActiveHotspot(); ok {
		if !l.Launch.Confirm("close hotspot " + name + "?") {
			return NavBack
		}
		if err := l.Backend.ProfileDown(name); err != nil {
			l.Notify.Send(notify.Critical, "hotspot", "could not close "+name+": "+err.Error())
			return NavBack
		}
		l.Notify.Send(notify.Normal, "hotspot closed", name)
		return NavRefresh
	}

	if name, ok := l.Backend.HotspotProfile(); ok {
		start := "start " + name
		choice, chose := l.Launch.Choose([]string{start, "create new hotspot"}, "hotspot",
			launcher.Options{Lines: 2, Highlight: -1, NoCustom: true})
		if !chose {
			return NavBack
		}
		if choice == start {
			if err := l.Backend.ProfileUp(name); err != nil {
				l.Notify.Send(notify.Critical, "hotspot", err.Error())
				return NavBack
			}
			l.Notify.Send(notify.Normal, "hotspot up", name)
			return NavRefresh
		}
	}
	return l.createHotspot()
}

func (l *Loop) createHotspot() Nav {
	ssid, ok := l.Launch.Input("hotspot ssid: ")
	if !ok || strings.TrimSpace(ssid) == "" {
		return NavBack
	}
	password, ok := l.Launch.Password("min 8 characters")
	if !ok {
		return NavBack
	}
	// WPA2-PSK floor; NetworkManager rejects shorter keys anyway
	if len(password) < 8 {
		l.Notify.Send(notify.Critical, "hotspot", "password must be at least 8 characters")
		return NavBack
	}
	if err := l.Backend.CreateHotspot(strings.TrimSpace(ssid), password); err != nil {
		l.Notify.Send(notify.Critical, "hotspot", err.Error())
		return NavBack
	}
	l.Notify.Send(notify.Normal, "hotspot up", strings.TrimSpace(ssid))
	return NavRefresh
}
