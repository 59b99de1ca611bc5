package reminder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/blink/pkg/idle"
	"github.com/Veraticus/blink/pkg/metrics"
	"github.com/Veraticus/blink/pkg/notification"
)

const (
	interval  = 20 * time.Minute
	tick      = 5 * time.Second
	threshold = 5 * time.Second
)

var (
	t0      = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	active  = idle.Measured(time.Second)
	away    = idle.Measured(time.Minute)
	unknown = idle.Unknown
)

var payload = notification.Notification{
	AppName:  "blink",
	Title:    "Time for Eye Rest",
	Body:     "Look at something 20 feet away for 20 seconds.",
	Duration: 20 * time.Second,
}

// fakeClock is advanced explicitly by the test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// scriptedProbe returns the next sample each call and repeats the last one.
type scriptedProbe struct {
	mu      sync.Mutex
	samples []idle.Sample
	calls   int
	panicN  int // panic on the first panicN calls
}

func (p *scriptedProbe) Sample(context.Context) idle.Sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.calls <= p.panicN {
		panic("probe exploded")
	}
	if len(p.samples) == 0 {
		return idle.Unknown
	}
	s := p.samples[0]
	if len(p.samples) > 1 {
		p.samples = p.samples[1:]
	}
	return s
}

func (p *scriptedProbe) Set(samples ...idle.Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = samples
}

func (p *scriptedProbe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// MockNotifier records every Send.
type MockNotifier struct {
	mu    sync.Mutex
	sent  []notification.Notification
	err   error
	ticks []time.Time
	clock *fakeClock
}

func (m *MockNotifier) Send(_ context.Context, n notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, n)
	if m.clock != nil {
		m.ticks = append(m.ticks, m.clock.Now())
	}
	return m.err
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *MockNotifier) FiredAt() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]time.Time, len(m.ticks))
	copy(result, m.ticks)
	return result
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeClock, *scriptedProbe, *MockNotifier) {
	t.Helper()

	clock := &fakeClock{now: t0}
	probe := &scriptedProbe{}
	notifier := &MockNotifier{clock: clock}

	s := New(Options{
		Interval:      interval,
		Tick:          tick,
		IdleThreshold: threshold,
		Reminder:      payload,
		Clock:         clock.Now,
		Logger:        quietLogger(),
	}, probe, notifier)

	return s, clock, probe, notifier
}

// stepAt sets the clock to t0+offset and runs one tick with sample.
func stepAt(s *Scheduler, clock *fakeClock, probe *scriptedProbe, offset time.Duration, sample idle.Sample) Outcome {
	clock.Set(t0.Add(offset))
	probe.Set(sample)
	return s.Step(context.Background())
}

func TestNew(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)

	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, t0.Add(interval), s.NextDue())
	assert.True(t, s.Running())
}

func TestStep_Classification(t *testing.T) {
	tests := []struct {
		name        string
		prepare     func(s *Scheduler, clock *fakeClock, probe *scriptedProbe)
		offset      time.Duration
		sample      idle.Sample
		wantOutcome Outcome
		wantState   State
		wantNextDue time.Duration // offset from t0
		wantSends   int
	}{
		{
			name:        "Active before due does nothing",
			offset:      time.Minute,
			sample:      active,
			wantOutcome: OutcomeNone,
			wantState:   StateActive,
			wantNextDue: interval,
		},
		{
			name:        "Active at due fires",
			offset:      interval,
			sample:      active,
			wantOutcome: OutcomeShown,
			wantState:   StateActive,
			wantNextDue: 2 * interval,
			wantSends:   1,
		},
		{
			name:        "Idle exactly at threshold is idle",
			offset:      time.Minute,
			sample:      idle.Measured(threshold),
			wantOutcome: OutcomeNone,
			wantState:   StateIdle,
			wantNextDue: interval,
		},
		{
			name:        "Idle at due skips and resets",
			offset:      interval + time.Minute,
			sample:      away,
			wantOutcome: OutcomeSkipped,
			wantState:   StateIdle,
			wantNextDue: 2*interval + time.Minute,
		},
		{
			name: "Wake resets even when overdue",
			prepare: func(s *Scheduler, clock *fakeClock, probe *scriptedProbe) {
				stepAt(s, clock, probe, time.Minute, away)
			},
			offset:      3 * interval,
			sample:      active,
			wantOutcome: OutcomeWake,
			wantState:   StateActive,
			wantNextDue: 4 * interval,
		},
		{
			name: "Wake before due resets too",
			prepare: func(s *Scheduler, clock *fakeClock, probe *scriptedProbe) {
				stepAt(s, clock, probe, time.Minute, away)
			},
			offset:      2 * time.Minute,
			sample:      active,
			wantOutcome: OutcomeWake,
			wantState:   StateActive,
			wantNextDue: 2*time.Minute + interval,
		},
		{
			name:        "Unknown while active and due still fires",
			offset:      interval,
			sample:      unknown,
			wantOutcome: OutcomeShown,
			wantState:   StateActive,
			wantNextDue: 2 * interval,
			wantSends:   1,
		},
		{
			name: "Unknown while idle and due neither fires nor resets",
			prepare: func(s *Scheduler, clock *fakeClock, probe *scriptedProbe) {
				stepAt(s, clock, probe, time.Minute, away)
			},
			offset:      interval + time.Minute,
			sample:      unknown,
			wantOutcome: OutcomeNone,
			wantState:   StateIdle,
			wantNextDue: interval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock, probe, notifier := newTestScheduler(t)
			if tt.prepare != nil {
				tt.prepare(s, clock, probe)
			}

			got := stepAt(s, clock, probe, tt.offset, tt.sample)

			assert.Equal(t, tt.wantOutcome, got)
			assert.Equal(t, tt.wantState, s.State())
			assert.Equal(t, t0.Add(tt.wantNextDue), s.NextDue())
			assert.Equal(t, tt.wantSends, notifier.Count())
		})
	}
}

func TestStep_SendsFixedPayload(t *testing.T) {
	s, clock, probe, notifier := newTestScheduler(t)

	stepAt(s, clock, probe, interval, active)

	require.Equal(t, 1, notifier.Count())
	assert.Equal(t, payload, notifier.sent[0])
}

func TestStep_MissedReminderStillResets(t *testing.T) {
	s, clock, probe, notifier := newTestScheduler(t)
	notifier.err = errors.Join(notification.ErrUndelivered, errors.New("zenity: not found"))

	got := stepAt(s, clock, probe, interval+3*time.Second, active)

	assert.Equal(t, OutcomeMissed, got)
	assert.Equal(t, 1, notifier.Count())
	assert.Equal(t, t0.Add(2*interval+3*time.Second), s.NextDue())

	// The next tick does not retry the missed reminder.
	got = stepAt(s, clock, probe, interval+8*time.Second, active)
	assert.Equal(t, OutcomeNone, got)
	assert.Equal(t, 1, notifier.Count())
}

func TestStep_RepeatedIdleTicksPastDueNeverNotify(t *testing.T) {
	s, clock, probe, notifier := newTestScheduler(t)

	var skipped int
	for offset := time.Duration(0); offset <= 5*interval; offset += tick {
		if stepAt(s, clock, probe, offset, away) == OutcomeSkipped {
			skipped++
		}
	}

	assert.Zero(t, notifier.Count())
	assert.Equal(t, 5, skipped, "one silent reset per elapsed interval")
}

func TestStep_UnknownRunLeavesCountdownUntouched(t *testing.T) {
	for _, start := range []idle.Sample{active, away} {
		t.Run(start.String(), func(t *testing.T) {
			s, clock, probe, _ := newTestScheduler(t)
			stepAt(s, clock, probe, 0, start)

			state, due := s.State(), s.NextDue()
			for offset := tick; offset < interval; offset += tick {
				stepAt(s, clock, probe, offset, unknown)
				assert.Equal(t, state, s.State())
				assert.Equal(t, due, s.NextDue())
			}
		})
	}
}

// TestStep_RandomSequences checks the scheduler's invariants over random sample streams.
func TestStep_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	samples := []idle.Sample{active, away, unknown, idle.Measured(0), idle.Measured(threshold - time.Millisecond)}

	for run := 0; run < 50; run++ {
		s, clock, probe, notifier := newTestScheduler(t)

		for i := 0; i < 2000; i++ {
			offset := time.Duration(i) * tick
			sample := samples[rng.Intn(len(samples))]
			prevState, prevDue, prevSends := s.State(), s.NextDue(), notifier.Count()
			now := t0.Add(offset)

			got := stepAt(s, clock, probe, offset, sample)

			if got == OutcomeShown {
				require.Equal(t, prevSends+1, notifier.Count())
				require.Equal(t, StateActive, s.State(), "never fires while idle")
				require.False(t, sample.Known && sample.Idle >= threshold, "never fires on an idle sample")
				require.False(t, now.Before(prevDue))
			} else {
				require.Equal(t, prevSends, notifier.Count())
			}

			if got == OutcomeWake {
				require.Equal(t, StateIdle, prevState)
			}

			if !sample.Known {
				require.Equal(t, prevState, s.State())
				if got == OutcomeNone {
					require.Equal(t, prevDue, s.NextDue())
				}
			}

			if s.NextDue() != prevDue {
				require.Equal(t, now.Add(interval), s.NextDue(), "resets are always now + interval")
			}
			require.False(t, s.NextDue().Before(now))
		}
	}
}

func TestScenario_IdleThroughout(t *testing.T) {
	s, clock, probe, notifier := newTestScheduler(t)

	for offset := time.Duration(0); offset <= 24*time.Hour; offset += tick {
		stepAt(s, clock, probe, offset, away)
	}

	assert.Zero(t, notifier.Count())
}

func TestScenario_ActiveThroughout(t *testing.T) {
	s, clock, probe, notifier := newTestScheduler(t)

	for offset := time.Duration(0); offset <= 1300*time.Second; offset += tick {
		stepAt(s, clock, probe, offset, active)
	}

	fired := notifier.FiredAt()
	require.Len(t, fired, 1)
	assert.WithinDuration(t, t0.Add(1200*time.Second), fired[0], tick)
	assert.WithinDuration(t, t0.Add(2400*time.Second), s.NextDue(), tick)
}

func TestScenario_StepAwayBeforeDue(t *testing.T) {
	s, clock, probe, notifier := newTestScheduler(t)

	for offset := time.Duration(0); offset <= 1400*time.Second; offset += tick {
		sample := active
		if offset >= 1190*time.Second && offset < 1250*time.Second {
			sample = away
		}
		got := stepAt(s, clock, probe, offset, sample)
		if offset == 1250*time.Second {
			assert.Equal(t, OutcomeWake, got)
			assert.Equal(t, t0.Add(2450*time.Second), s.NextDue())
		}
	}

	assert.Zero(t, notifier.Count())
	assert.Equal(t, t0.Add(2450*time.Second), s.NextDue())
}

func TestStep_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	clock := &fakeClock{now: t0}
	probe := &scriptedProbe{}
	notifier := &MockNotifier{}
	s := New(Options{
		Interval:      interval,
		Tick:          tick,
		IdleThreshold: threshold,
		Reminder:      payload,
		Clock:         clock.Now,
		Logger:        quietLogger(),
		Metrics:       rec,
	}, probe, notifier)

	stepAt(s, clock, probe, time.Minute, unknown)
	stepAt(s, clock, probe, interval, active)
	stepAt(s, clock, probe, interval+tick, away)
	stepAt(s, clock, probe, interval+2*tick, active)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[f.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[f.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 4.0, values["blink_ticks_total"])
	assert.Equal(t, 1.0, values["blink_probe_unknown_total"])
	assert.Equal(t, 1.0, values["blink_reminders_total"])
	assert.Equal(t, 1.0, values["blink_wakes_total"])
	assert.Equal(t, float64(s.NextDue().Unix()), values["blink_next_due_timestamp_seconds"])
	count, err := promtest.GatherAndCount(reg, "blink_reminders_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRun_StopsOnStop(t *testing.T) {
	probe := &scriptedProbe{samples: []idle.Sample{active}}
	notifier := &MockNotifier{}

	s := New(Options{
		Interval:      20 * time.Millisecond,
		Tick:          time.Millisecond,
		IdleThreshold: threshold,
		Reminder:      payload,
		Logger:        quietLogger(),
	}, probe, notifier)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background())
	}()

	require.Eventually(t, func() bool { return notifier.Count() >= 2 }, 5*time.Second, time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.False(t, s.Running())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	probe := &scriptedProbe{samples: []idle.Sample{away}}
	s := New(Options{
		Interval:      interval,
		Tick:          time.Hour,
		IdleThreshold: threshold,
		Reminder:      payload,
		Logger:        quietLogger(),
	}, probe, &MockNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	require.Eventually(t, func() bool { return probe.Calls() == 1 }, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, probe.Calls(), "no extra tick after shutdown")
}

func TestRun_SurvivesPanickingTicks(t *testing.T) {
	var logs bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &logs}, nil))

	probe := &scriptedProbe{samples: []idle.Sample{active}, panicN: 3}
	s := New(Options{
		Interval:      time.Hour,
		Tick:          time.Millisecond,
		IdleThreshold: threshold,
		Reminder:      payload,
		Logger:        logger,
	}, probe, &MockNotifier{})

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background())
	}()

	require.Eventually(t, func() bool { return probe.Calls() > 5 }, 5*time.Second, time.Millisecond)
	s.Stop()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, logs.String(), "error in monitor loop")
	assert.Contains(t, logs.String(), "probe exploded")
}

func TestSafeStep_ReturnsErrorOutcome(t *testing.T) {
	s, _, probe, _ := newTestScheduler(t)
	probe.panicN = 1

	assert.Equal(t, OutcomeError, s.safeStep(context.Background()))
	assert.Equal(t, OutcomeNone, s.safeStep(context.Background()))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "State(7)", State(7).String())

	names := map[Outcome]string{
		OutcomeNone:    "none",
		OutcomeWake:    "wake",
		OutcomeSkipped: "skipped",
		OutcomeShown:   "shown",
		OutcomeMissed:  "missed",
		OutcomeError:   "error",
	}
	for o, want := range names {
		assert.Equal(t, want, o.String())
	}
	assert.Equal(t, "Outcome(42)", Outcome(42).String())
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
