package notification

import (
	"context"
	"strconv"
	"time"

	"github.com/Veraticus/blink/pkg/interfaces"
)

// NotifySend shells out to notify-send (or a compatible tool).
type NotifySend struct {
	command string
	timeout time.Duration
	runner  interfaces.Runner
}

// NewNotifySend creates the command-line mechanism bounded by timeout.
func NewNotifySend(runner interfaces.Runner, command string, timeout time.Duration) *NotifySend {
	return &NotifySend{
		command: command,
		timeout: timeout,
		runner:  runner,
	}
}

// Name returns the executable name.
func (s *NotifySend) Name() string {
	return s.command
}

// Attempt runs `<tool> -u critical -t <ms> <title> <body>` and waits for it.
func (s *NotifySend) Attempt(ctx context.Context, n Notification) error {
	_, err := s.runner.Output(ctx, s.timeout, s.command,
		"-u", "critical",
		"-t", strconv.Itoa(int(n.TimeoutMillis())),
		n.Title,
		n.Body,
	)
	return err
}

// Dialog launches a zenity-style info box as a last resort.
type Dialog struct {
	command string
	runner  interfaces.Runner
}

// NewDialog creates the dialog mechanism.
func NewDialog(runner interfaces.Runner, command string) *Dialog {
	return &Dialog{
		command: command,
		runner:  runner,
	}
}

// Name returns the executable name.
func (d *Dialog) Name() string {
	return d.command
}

// Attempt starts the dialog detached. Only a failure to launch is reported;
// the dialog's exit status is never awaited.
func (d *Dialog) Attempt(_ context.Context, n Notification) error {
	return d.runner.Start(d.command,
		"--info",
		"--title", n.Title,
		"--text", n.Body,
		"--no-wrap",
	)
}
