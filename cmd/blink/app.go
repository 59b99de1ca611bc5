package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/Veraticus/blink/pkg/config"
	"github.com/Veraticus/blink/pkg/idle"
	"github.com/Veraticus/blink/pkg/metrics"
	"github.com/Veraticus/blink/pkg/notification"
	"github.com/Veraticus/blink/pkg/reminder"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger returns a tint logger on w, coloured only when w is a terminal.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      logLevelMap[level],
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !isTerminal(w),
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config    *config.Config
	Logger    *slog.Logger
	ErrLogger *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Recorder
	Probe     *idle.Probe
	Notifier  *notification.Manager
	Scheduler *reminder.Scheduler
}

// NewDependencies creates all dependencies with the given configuration.
// Lifecycle logs go to out; notification dispatch failures go to errOut.
func NewDependencies(cfg *config.Config, out, errOut io.Writer) *Dependencies {
	deps := &Dependencies{
		Config:    cfg,
		Logger:    newLogger(out, cfg.LogLevel),
		ErrLogger: newLogger(errOut, cfg.LogLevel),
		Registry:  prometheus.NewRegistry(),
	}
	deps.Metrics = metrics.NewRecorder(deps.Registry)

	deps.Probe = idle.NewDefaultProbe(idle.Options{
		Command: cfg.ProbeCommand,
		Timeout: cfg.ProbeTimeout,
		Logger:  deps.Logger,
	})

	deps.Notifier = notification.NewDefaultManager(notification.Options{
		NotifySend: cfg.Notifiers.NotifySend,
		Dialog:     cfg.Notifiers.Dialog,
		Timeout:    cfg.NotifyTimeout,
		Logger:     deps.ErrLogger,
	})

	deps.Scheduler = reminder.New(reminder.Options{
		Interval:      cfg.Interval,
		Tick:          cfg.Tick,
		IdleThreshold: cfg.IdleThreshold,
		Reminder: notification.Notification{
			AppName:  cfg.Notification.AppName,
			Title:    cfg.Notification.Title,
			Body:     cfg.Notification.Body,
			Duration: cfg.Notification.Duration,
		},
		Logger:  deps.Logger,
		Metrics: deps.Metrics,
	}, deps.Probe, deps.Notifier)

	return deps
}

// Application represents the main application
type Application struct {
	deps *Dependencies

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
	}
}

// Run drives the reminder loop, and the metrics endpoint when configured,
// until Stop is called or ctx is done.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	a.deps.Logger.Info("idle probe ready", "backends", a.deps.Probe.Backends())
	a.deps.Logger.Info("notifier ready", "mechanisms", a.deps.Notifier.Mechanisms())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The metrics server goes down with the loop.
		defer cancel()
		return a.deps.Scheduler.Run(gctx)
	})

	if addr := a.deps.Config.MetricsAddr; addr != "" {
		a.deps.Logger.Info("serving metrics", "addr", addr)
		g.Go(func() error {
			return metrics.Serve(gctx, addr, a.deps.Registry)
		})
	}

	return g.Wait()
}

// Stop asks the loop to exit after its current tick.
func (a *Application) Stop() {
	a.deps.Scheduler.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}
