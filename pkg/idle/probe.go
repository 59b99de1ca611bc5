// Package idle samples how long the user has been away from the input devices.
package idle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/blink/pkg/interfaces"
	"github.com/Veraticus/blink/pkg/process"
)

// Sample is a single idle-time reading. A zero Sample is Unknown.
type Sample struct {
	Idle  time.Duration
	Known bool
}

// Unknown is the sample returned when no backend could answer.
var Unknown = Sample{}

// Measured returns a known sample of d.
func Measured(d time.Duration) Sample {
	return Sample{Idle: d, Known: true}
}

func (s Sample) String() string {
	if !s.Known {
		return "unknown"
	}
	return s.Idle.String()
}

// Probe asks an ordered list of backends for the idle time and returns the
// first answer. It never fails: when every backend errors the sample is Unknown.
type Probe struct {
	backends []interfaces.IdleBackend
	logger   *slog.Logger
}

// NewProbe creates a probe over backends, tried in order.
func NewProbe(logger *slog.Logger, backends ...interfaces.IdleBackend) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		backends: backends,
		logger:   logger,
	}
}

// Sample queries the backends. There are no retries; the caller polls again.
func (p *Probe) Sample(ctx context.Context) Sample {
	for _, b := range p.backends {
		d, err := p.query(ctx, b)
		if err == nil {
			return Measured(d)
		}
		p.logger.Debug("idle backend failed",
			"backend", b.Name(),
			"kind", process.Kind(err),
			"err", err)
	}
	return Unknown
}

// Backends returns the names of the configured backends in order.
func (p *Probe) Backends() []string {
	names := make([]string, 0, len(p.backends))
	for _, b := range p.backends {
		names = append(names, b.Name())
	}
	return names
}

func (p *Probe) query(ctx context.Context, b interfaces.IdleBackend) (d time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", b.Name(), r)
		}
	}()

	d, err = b.IdleTime(ctx)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative idle time %s", b.Name(), d)
	}
	return d, nil
}
