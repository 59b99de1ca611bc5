// Package metrics exposes Prometheus collectors describing what the reminder
// loop decided on each tick.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blink"

// Recorder holds the scheduler collectors. A nil *Recorder records nothing.
type Recorder struct {
	ticks        prometheus.Counter
	tickErrors   prometheus.Counter
	probeUnknown prometheus.Counter
	reminders    *prometheus.CounterVec
	skipped      prometheus.Counter
	wakes        prometheus.Counter
	nextDue      prometheus.Gauge
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of poll ticks evaluated.",
		}),
		tickErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Number of ticks that failed and were recovered.",
		}),
		probeUnknown: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_unknown_total",
			Help:      "Number of ticks where no idle backend answered.",
		}),
		reminders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Reminders fired, by delivery result.",
		}, []string{"result"}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_skipped_total",
			Help:      "Reminders suppressed because the user was idle when due.",
		}),
		wakes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wakes_total",
			Help:      "Transitions from idle back to active.",
		}),
		nextDue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "next_due_timestamp_seconds",
			Help:      "Unix time at which the next reminder is due.",
		}),
	}
}

// Tick counts one evaluated tick.
func (r *Recorder) Tick() {
	if r == nil {
		return
	}
	r.ticks.Inc()
}

// TickError counts a recovered tick failure.
func (r *Recorder) TickError() {
	if r == nil {
		return
	}
	r.tickErrors.Inc()
}

// ProbeUnknown counts a tick without an idle reading.
func (r *Recorder) ProbeUnknown() {
	if r == nil {
		return
	}
	r.probeUnknown.Inc()
}

// Reminder counts a fired reminder; delivered reports whether any mechanism accepted it.
func (r *Recorder) Reminder(delivered bool) {
	if r == nil {
		return
	}
	result := "missed"
	if delivered {
		result = "shown"
	}
	r.reminders.WithLabelValues(result).Inc()
}

// Skipped counts a reminder suppressed while idle.
func (r *Recorder) Skipped() {
	if r == nil {
		return
	}
	r.skipped.Inc()
}

// Wake counts an idle to active transition.
func (r *Recorder) Wake() {
	if r == nil {
		return
	}
	r.wakes.Inc()
}

// NextDue publishes the current due time.
func (r *Recorder) NextDue(t time.Time) {
	if r == nil {
		return
	}
	r.nextDue.Set(float64(t.UnixNano()) / float64(time.Second))
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}
