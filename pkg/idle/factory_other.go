//go:build !linux && !darwin
// +build !linux,!darwin

package idle

import (
	"github.com/Veraticus/blink/pkg/interfaces"
)

// platformBackends falls back to the configured command on unsupported platforms.
func platformBackends(opts Options) []interfaces.IdleBackend {
	return []interfaces.IdleBackend{
		NewCommandBackend(opts.Runner, opts.Command, opts.Timeout),
	}
}
