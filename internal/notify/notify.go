// Package notify delivers desktop notifications over the session bus
// (org.freedesktop.Notifications), degrading to the log when no bus is
// available. Sends are fire-and-forget and never block the caller on
// failure.
package notify

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Urgency levels follow the freedesktop notification spec byte values.
type Urgency byte

const (
	Low Urgency = iota
	Normal
	Critical
)

// Notifier sends a user-visible notification.
type Notifier interface {
	Send(urgency Urgency, title, body string)
}

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	method     = "org.freedesktop.Notifications.Notify"
)

type dbusNotifier struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// New returns a session-bus notifier, or a log-only fallback when the
// session bus cannot be reached.
func New(logger *slog.Logger) Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Warn("session bus unavailable, notifications go to the log", "error", err)
		return &logNotifier{logger: logger}
	}
	return &dbusNotifier{conn: conn, logger: logger}
}

func (n *dbusNotifier) Send(urgency Urgency, title, body string) {
	obj := n.conn.Object(busName, objectPath)
	call := obj.Call(method, 0,
		"rofi-rwifi",       // app name
		uint32(0),          // no notification to replace
		"network-wireless", // icon
		"Wi-Fi: "+title,
		body,
		[]string{}, // no actions
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(urgency))},
		int32(-1), // server-default expiry
	)
	if call.Err != nil {
		n.logger.Warn("notification failed", "title", title, "error", call.Err)
	}
}

type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Send(urgency Urgency, title, body string) {
	n.logger.Info("notification", "urgency", urgency, "title", title, "body", body)
}
