// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import (
	"context"
	"time"
)

// Runner invokes external commands. Failures wrap process.ErrUnavailable,
// process.ErrTimeout or process.ErrRejected.
type Runner interface {
	Output(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)
	Start(name string, args ...string) error
}

// IdleBackend reports how long the user has been away from the input devices.
type IdleBackend interface {
	Name() string
	IdleTime(ctx context.Context) (time.Duration, error)
}
