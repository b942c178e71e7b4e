// Package connect drives the interactive join flow for one target network:
// prompt for a credential, attempt, classify the result, then retry or stop.
package connect

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eon-ic/rofi-rwifi/internal/notify"
	"github.com/eon-ic/rofi-rwifi/wifi"
)

// State names one step of a connection run.
type State int

const (
	AwaitingCredential State = iota
	Attempting
	Succeeded
	WrongCredentialRetry
	TimedOut // pass-through; a timed-out run still terminates in Failed
	Failed
	Abandoned
)

func (s State) String() string {
	switch s {
	case AwaitingCredential:
		return "awaiting-credential"
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case WrongCredentialRetry:
		return "wrong-credential-retry"
	case TimedOut:
		return "timed-out"
	case Failed:
		return "failed"
	case Abandoned:
		return "abandoned"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Joiner is the backend slice the machine needs.
type Joiner interface {
	Connect(ssid, password string, timeout time.Duration) wifi.ConnectOutcome
	ActivateSaved(ssid string, timeout time.Duration) error
	CurrentIP() (string, bool)
	Ping(host string, count int) wifi.ProbeResult
	ProfileUp(name string) error
}

// Prompter asks the user for a credential; ok is false on cancellation.
type Prompter interface {
	Password(hint string) (string, bool)
}

// Machine runs bounded connection attempts against one network.
type Machine struct {
	Backend   Joiner
	Prompt    Prompter
	Notify    notify.Notifier
	Logger    *slog.Logger
	MaxRetry  int           // credential attempts before giving up
	Timeout   time.Duration // per-attempt ceiling passed to the backend
	PingHost  string        // post-connect reachability target; empty disables
	PingCount int
	AutoVPN   map[string][]string // SSID -> VPN profiles to bring up after joining
}

// Result is the transition history of one run; the last entry is the final
// state.
type Result struct {
	Trace []State
}

// Final returns the state the run ended in.
func (r Result) Final() State {
	if len(r.Trace) == 0 {
		return Abandoned
	}
	return r.Trace[len(r.Trace)-1]
}

func (r *Result) enter(s State) {
	r.Trace = append(r.Trace, s)
}

// Join connects to a network with no stored profile. Secured targets are
// prompted for a passphrase before each attempt; a wrong credential re-prompts
// up to MaxRetry times, while timeouts and other failures stop after one.
// Cancelling the prompt, or submitting nothing, abandons the run.
func (m *Machine) Join(ap wifi.AccessPoint) Result {
	var res Result
	attempts := m.MaxRetry
	if attempts < 1 {
		attempts = 1
	}

	password := ""
	for attempt := 1; attempt <= attempts; attempt++ {
		if ap.Security.NeedsPassword() {
			res.enter(AwaitingCredential)
			hint := ""
			if attempt > 1 {
				hint = fmt.Sprintf("attempt %d of %d", attempt, attempts)
			}
			pw, ok := m.Prompt.Password(hint)
			if !ok || pw == "" {
				res.enter(Abandoned)
				return res
			}
			password = pw
		}

		res.enter(Attempting)
		m.Logger.Info("connecting", "ssid", ap.SSID, "attempt", attempt)
		outcome := m.Backend.Connect(ap.SSID, password, m.Timeout)
		switch outcome.Status {
		case wifi.ConnectSuccess:
			res.enter(Succeeded)
			m.announce(ap.SSID, outcome.IP)
			return res
		case wifi.ConnectWrongPassword:
			m.Logger.Info("wrong password", "ssid", ap.SSID, "attempt", attempt)
			// The last allowed attempt fails outright instead of entering
			// the retry state there is no retry left for.
			if attempt == attempts {
				m.Notify.Send(notify.Critical, "connection failed",
					fmt.Sprintf("wrong password for %s (%d attempts)", ap.SSID, attempts))
				res.enter(Failed)
				return res
			}
			res.enter(WrongCredentialRetry)
		case wifi.ConnectTimeout:
			res.enter(TimedOut)
			m.Notify.Send(notify.Critical, "connection failed",
				fmt.Sprintf("timed out connecting to %s", ap.SSID))
			res.enter(Failed)
			return res
		default:
			res.enter(Failed)
			m.Notify.Send(notify.Critical, "connection failed", outcome.Message)
			return res
		}
	}
	return res
}

// JoinWithSecret attempts once with a credential supplied up front (manual
// entry). No re-prompting: the user typed the secret inline and can redo the
// whole entry on failure.
func (m *Machine) JoinWithSecret(ssid, password string) Result {
	var res Result
	res.enter(Attempting)
	m.Logger.Info("connecting", "ssid", ssid, "manual", true)
	outcome := m.Backend.Connect(ssid, password, m.Timeout)
	switch outcome.Status {
	case wifi.ConnectSuccess:
		res.enter(Succeeded)
		m.announce(ssid, outcome.IP)
	case wifi.ConnectWrongPassword:
		res.enter(Failed)
		m.Notify.Send(notify.Critical, "connection failed", "wrong password for "+ssid)
	case wifi.ConnectTimeout:
		res.enter(TimedOut)
		m.Notify.Send(notify.Critical, "connection failed", "timed out connecting to "+ssid)
		res.enter(Failed)
	default:
		res.enter(Failed)
		m.Notify.Send(notify.Critical, "connection failed", outcome.Message)
	}
	return res
}

// Activate brings up an existing saved profile. No prompting, no retries:
// NetworkManager already holds the credential, so a failure here is not a
// wrong password we could fix by asking again.
func (m *Machine) Activate(ssid string) Result {
	var res Result
	res.enter(Attempting)
	m.Logger.Info("activating saved profile", "ssid", ssid)
	if err := m.Backend.ActivateSaved(ssid, m.Timeout); err != nil {
		res.enter(Failed)
		m.Notify.Send(notify.Critical, "connection failed",
			fmt.Sprintf("could not activate %s: %v", ssid, err))
		return res
	}
	res.enter(Succeeded)
	ip, _ := m.Backend.CurrentIP()
	m.announce(ssid, ip)
	return res
}

// announce reports the success, probes reachability, and brings up any VPN
// profiles mapped to the network.
func (m *Machine) announce(ssid, ip string) {
	body := "connected"
	if ip != "" {
		body = "address " + ip
	}
	m.Notify.Send(notify.Normal, "connected to "+ssid, body)

	if m.PingHost != "" {
		probe := m.Backend.Ping(m.PingHost, m.PingCount)
		if probe.Reachable {
			m.Notify.Send(notify.Low, "internet reachable",
				fmt.Sprintf("%s answered in %.1f ms", m.PingHost, probe.AvgRTT))
		} else {
			m.Notify.Send(notify.Critical, "no internet", m.PingHost+" is not answering")
		}
	}

	for _, profile := range m.AutoVPN[ssid] {
		if err := m.Backend.ProfileUp(profile); err != nil {
			m.Logger.Warn("vpn activation failed", "profile", profile, "error", err)
			m.Notify.Send(notify.Critical, "vpn failed", profile+": "+err.Error())
			continue
		}
		m.Notify.Send(notify.Normal, "vpn up", profile)
	}
}
