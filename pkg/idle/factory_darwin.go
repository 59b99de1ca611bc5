//go:build darwin
// +build darwin

package idle

import (
	"github.com/Veraticus/blink/pkg/interfaces"
)

// platformBackends uses ioreg, which ships with every macOS install.
func platformBackends(opts Options) []interfaces.IdleBackend {
	return []interfaces.IdleBackend{
		NewIoregBackend(opts.Runner, opts.Timeout),
		NewCommandBackend(opts.Runner, opts.Command, opts.Timeout),
	}
}
