package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/blink/pkg/process"
)

// Manager tries its mechanisms in a fixed order and short-circuits on the first
// success. Failures are logged and never escape as panics.
type Manager struct {
	mechanisms []Mechanism
	logger     *slog.Logger
}

// NewManager creates a manager over mechanisms. Failed attempts are reported
// to logger, which the daemon points at standard error.
func NewManager(logger *slog.Logger, mechanisms ...Mechanism) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		mechanisms: mechanisms,
		logger:     logger,
	}
}

// Send delivers n through the first mechanism that accepts it. When all fail
// the error wraps ErrUndelivered and each attempt's error.
func (m *Manager) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, mech := range m.mechanisms {
		err := m.attempt(ctx, mech, n)
		if err == nil {
			m.logger.Debug("notification accepted", "mechanism", mech.Name())
			return nil
		}

		m.logger.Warn("notification mechanism failed",
			"mechanism", mech.Name(),
			"kind", process.Kind(err),
			"err", err)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return ErrUndelivered
	}
	return fmt.Errorf("%w: %w", ErrUndelivered, errors.Join(errs...))
}

// Mechanisms returns the mechanism names in the order they are tried.
func (m *Manager) Mechanisms() []string {
	names := make([]string, 0, len(m.mechanisms))
	for _, mech := range m.mechanisms {
		names = append(names, mech.Name())
	}
	return names
}

func (m *Manager) attempt(ctx context.Context, mech Mechanism, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", mech.Name(), r)
		}
	}()
	return mech.Attempt(ctx, n)
}
