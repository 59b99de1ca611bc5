package idle

import (
	"log/slog"
	"time"

	"github.com/Veraticus/blink/pkg/interfaces"
	"github.com/Veraticus/blink/pkg/process"
	"github.com/Veraticus/blink/pkg/sessionbus"
)

// Options configures NewDefaultProbe. Zero-valued fields fall back to the
// real implementations.
type Options struct {
	Command string
	Timeout time.Duration
	Runner  interfaces.Runner
	Dial    sessionbus.Dialer
	Logger  *slog.Logger
}

// NewDefaultProbe creates a probe with the platform-appropriate backends:
// - Linux: the configured command (xprintidle), then GNOME's idle monitor
// - macOS: ioreg, then the configured command
// - other platforms: the configured command only.
func NewDefaultProbe(opts Options) *Probe {
	if opts.Runner == nil {
		opts.Runner = process.NewExecRunner()
	}
	if opts.Dial == nil {
		opts.Dial = sessionbus.Dial
	}
	return NewProbe(opts.Logger, platformBackends(opts)...)
}
