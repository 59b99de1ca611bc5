package idle

import (
	"context"
	"time"

	"github.com/Veraticus/blink/pkg/sessionbus"
)

const (
	mutterDest   = "org.gnome.Mutter.IdleMonitor"
	mutterPath   = "/org/gnome/Mutter/IdleMonitor/Core"
	mutterMethod = "org.gnome.Mutter.IdleMonitor.GetIdletime"
)

// MutterBackend reads the idle time from GNOME's idle monitor on the session
// bus. It covers Wayland sessions where xprintidle cannot see input.
type MutterBackend struct {
	dial    sessionbus.Dialer
	timeout time.Duration
}

// NewMutterBackend creates a Mutter backend bounded by timeout.
func NewMutterBackend(dial sessionbus.Dialer, timeout time.Duration) *MutterBackend {
	return &MutterBackend{
		dial:    dial,
		timeout: timeout,
	}
}

// Name identifies the backend in logs.
func (b *MutterBackend) Name() string {
	return "mutter-idle-monitor"
}

// IdleTime calls GetIdletime, which answers in milliseconds.
func (b *MutterBackend) IdleTime(ctx context.Context) (time.Duration, error) {
	var ms uint64
	if err := sessionbus.Call(ctx, b.dial, b.timeout, mutterDest, mutterPath, mutterMethod, []interface{}{&ms}); err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}
