// Package reminder owns the rest-interval countdown. It polls the idle probe on
// a fixed tick, classifies the user as active or idle, and fires the reminder
// when the interval has elapsed while the user is present.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Veraticus/blink/pkg/idle"
	"github.com/Veraticus/blink/pkg/metrics"
	"github.com/Veraticus/blink/pkg/notification"
)

// IdleProbe samples the user's idle time. It must not block past its own
// timeout and reports failures as idle.Unknown.
type IdleProbe interface {
	Sample(ctx context.Context) idle.Sample
}

// State is the last presence classification.
type State int

const (
	StateActive State = iota
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is what a single tick decided.
type Outcome int

const (
	OutcomeNone    Outcome = iota
	OutcomeWake            // idle -> active, countdown restarted
	OutcomeSkipped         // due while idle, countdown restarted silently
	OutcomeShown           // reminder accepted by a notification mechanism
	OutcomeMissed          // reminder fired but every mechanism failed
	OutcomeError           // tick failed and was recovered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeWake:
		return "wake"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeShown:
		return "shown"
	case OutcomeMissed:
		return "missed"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Options configures a Scheduler.
type Options struct {
	Interval      time.Duration
	Tick          time.Duration
	IdleThreshold time.Duration
	Reminder      notification.Notification

	Clock   func() time.Time // defaults to time.Now
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Scheduler is the countdown state machine. Countdown and state are only
// touched by the goroutine calling Run or Step; Stop is safe from anywhere.
type Scheduler struct {
	interval      time.Duration
	tick          time.Duration
	idleThreshold time.Duration
	reminder      notification.Notification

	probe    IdleProbe
	notifier notification.Notifier
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Recorder

	state   State
	nextDue time.Time
	running atomic.Bool
}

// New creates a scheduler in the active state with the first reminder due one
// interval from now.
func New(opts Options, probe IdleProbe, notifier notification.Notifier) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Scheduler{
		interval:      opts.Interval,
		tick:          opts.Tick,
		idleThreshold: opts.IdleThreshold,
		reminder:      opts.Reminder,
		probe:         probe,
		notifier:      notifier,
		now:           opts.Clock,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		state:         StateActive,
	}
	s.nextDue = s.now().Add(s.interval)
	s.metrics.NextDue(s.nextDue)
	s.running.Store(true)
	return s
}

// Run polls until Stop is called or ctx is done. The flag is checked once per
// iteration, so an in-flight tick always completes.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("eye rest reminder started",
		"interval", s.interval,
		"tick", s.tick,
		"next_due", s.nextDue.Format(time.DateTime))

	for s.running.Load() {
		s.safeStep(ctx)

		timer := time.NewTimer(s.tick)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.running.Store(false)
		}
	}

	s.logger.Info("eye rest reminder stopped")
	return nil
}

// Stop asks Run to exit at the top of its next iteration.
func (s *Scheduler) Stop() {
	s.running.Store(false)
}

// Running reports whether the run flag is still set.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Step evaluates a single tick: sample, classify, maybe notify.
func (s *Scheduler) Step(ctx context.Context) Outcome {
	now := s.now()
	sample := s.probe.Sample(ctx)
	return s.advance(ctx, now, sample)
}

// NextDue returns the time the next reminder fires absent suppression.
func (s *Scheduler) NextDue() time.Time {
	return s.nextDue
}

// State returns the last presence classification.
func (s *Scheduler) State() State {
	return s.state
}

// safeStep runs a tick detached from ctx cancellation and recovers from any
// panic, so a bad tick never ends the loop.
func (s *Scheduler) safeStep(ctx context.Context) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("error in monitor loop", "err", fmt.Errorf("panic: %v", r))
			s.metrics.TickError()
			outcome = OutcomeError
		}
	}()
	return s.Step(context.WithoutCancel(ctx))
}

func (s *Scheduler) advance(ctx context.Context, now time.Time, sample idle.Sample) Outcome {
	s.metrics.Tick()

	switch {
	case !sample.Known:
		// No new information: leave state and countdown alone.
		s.metrics.ProbeUnknown()

	case sample.Idle < s.idleThreshold:
		if s.state == StateIdle {
			s.state = StateActive
			s.logger.Info("screen woke up, resetting timer", "idle", sample.Idle)
			s.metrics.Wake()
			s.reset(now)
			return OutcomeWake
		}

	default:
		s.state = StateIdle
		if !now.Before(s.nextDue) {
			s.logger.Info("screen is idle, skipping reminder", "idle", sample.Idle)
			s.metrics.Skipped()
			s.reset(now)
			return OutcomeSkipped
		}
		return OutcomeNone
	}

	if s.state != StateActive || now.Before(s.nextDue) {
		return OutcomeNone
	}
	return s.fire(ctx, now)
}

func (s *Scheduler) fire(ctx context.Context, now time.Time) Outcome {
	s.logger.Info("showing reminder", "title", s.reminder.Title)

	outcome := OutcomeShown
	if err := s.notifier.Send(ctx, s.reminder); err != nil {
		s.logger.Error("reminder not delivered", "err", err)
		outcome = OutcomeMissed
	} else {
		s.logger.Info("reminder shown")
	}
	s.metrics.Reminder(outcome == OutcomeShown)

	s.reset(now)
	return outcome
}

// reset pushes the countdown to one full interval after now.
func (s *Scheduler) reset(now time.Time) {
	s.nextDue = now.Add(s.interval)
	s.metrics.NextDue(s.nextDue)
	s.logger.Info("timer reset", "next_due", s.nextDue.Format(time.DateTime))
}
