package notification

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/Veraticus/blink/pkg/sessionbus"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	notificationsMethod = "org.freedesktop.Notifications.Notify"
)

// DesktopBus calls the freedesktop notification service directly.
type DesktopBus struct {
	dial    sessionbus.Dialer
	timeout time.Duration
}

// NewDesktopBus creates the session bus mechanism bounded by timeout.
func NewDesktopBus(dial sessionbus.Dialer, timeout time.Duration) *DesktopBus {
	return &DesktopBus{
		dial:    dial,
		timeout: timeout,
	}
}

// Name identifies the mechanism in logs.
func (d *DesktopBus) Name() string {
	return "dbus"
}

// Attempt sends a critical notification that expires after n.Duration.
func (d *DesktopBus) Attempt(ctx context.Context, n Notification) error {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(UrgencyCritical)),
	}

	var id uint32
	return sessionbus.Call(ctx, d.dial, d.timeout,
		notificationsDest, notificationsPath, notificationsMethod,
		[]interface{}{&id},
		n.AppName,  // app_name
		uint32(0),  // replaces_id
		"",         // app_icon
		n.Title,    // summary
		n.Body,     // body
		[]string{}, // actions
		hints,
		n.TimeoutMillis(),
	)
}
