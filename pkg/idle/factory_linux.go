//go:build linux
// +build linux

package idle

import (
	"github.com/Veraticus/blink/pkg/interfaces"
)

// platformBackends prefers the X11 command and falls back to the session bus.
func platformBackends(opts Options) []interfaces.IdleBackend {
	return []interfaces.IdleBackend{
		NewCommandBackend(opts.Runner, opts.Command, opts.Timeout),
		NewMutterBackend(opts.Dial, opts.Timeout),
	}
}
