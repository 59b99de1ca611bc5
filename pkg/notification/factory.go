package notification

import (
	"log/slog"
	"time"

	"github.com/Veraticus/blink/pkg/interfaces"
	"github.com/Veraticus/blink/pkg/process"
	"github.com/Veraticus/blink/pkg/sessionbus"
)

// Options configures NewDefaultManager. Zero-valued collaborators fall back to
// the real implementations.
type Options struct {
	NotifySend string
	Dialog     string
	Timeout    time.Duration
	Runner     interfaces.Runner
	Dial       sessionbus.Dialer
	Logger     *slog.Logger
}

// NewDefaultManager builds the standard chain: session bus, notify-send, dialog.
func NewDefaultManager(opts Options) *Manager {
	if opts.Runner == nil {
		opts.Runner = process.NewExecRunner()
	}
	if opts.Dial == nil {
		opts.Dial = sessionbus.Dial
	}

	return NewManager(opts.Logger,
		NewDesktopBus(opts.Dial, opts.Timeout),
		NewNotifySend(opts.Runner, opts.NotifySend, opts.Timeout),
		NewDialog(opts.Runner, opts.Dialog),
	)
}
