package wifi

import "strings"

// credentialMarkers are substrings NetworkManager emits when an attempt died
// on authentication. The matching is best-effort: nmcli's error text is not
// a stable API, so keep the rules here and nowhere else.
var credentialMarkers = []string{
	"secrets",
	"password",
	"authentication",
	"802-11-wireless-security",
}

// ClassifyConnectOutput maps the combined stdout+stderr of a failed connect
// invocation to a ConnectOutcome. It is a pure function so the matching
// rules can be tuned and tested without any process machinery.
func ClassifyConnectOutput(combined string) ConnectOutcome {
	lower := strings.ToLower(combined)
	for _, marker := range credentialMarkers {
		if strings.Contains(lower, marker) {
			return ConnectOutcome{Status: ConnectWrongPassword}
		}
	}
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") {
		return ConnectOutcome{Status: ConnectTimeout}
	}
	return ConnectOutcome{Status: ConnectFailed, Message: lastLine(combined)}
}

// lastLine returns the final non-empty line of s, or a generic message when
// there is nothing to show.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return "unknown error"
}
