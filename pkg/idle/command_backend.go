package idle

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Veraticus/blink/pkg/interfaces"
	"github.com/Veraticus/blink/pkg/process"
)

// CommandBackend runs an xprintidle-compatible executable: no arguments, the
// idle time in milliseconds on stdout, exit status 0.
type CommandBackend struct {
	command string
	timeout time.Duration
	runner  interfaces.Runner
}

// NewCommandBackend creates a backend for command bounded by timeout.
func NewCommandBackend(runner interfaces.Runner, command string, timeout time.Duration) *CommandBackend {
	return &CommandBackend{
		command: command,
		timeout: timeout,
		runner:  runner,
	}
}

// Name returns the executable name.
func (b *CommandBackend) Name() string {
	return b.command
}

// IdleTime runs the command and parses its output.
func (b *CommandBackend) IdleTime(ctx context.Context) (time.Duration, error) {
	output, err := b.runner.Output(ctx, b.timeout, b.command)
	if err != nil {
		return 0, err
	}
	return parseMillis(b.command, output)
}

func parseMillis(command string, output []byte) (time.Duration, error) {
	value := string(bytes.TrimSpace(output))
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: malformed output %q", command, process.ErrRejected, value)
	}
	if ms < 0 {
		return 0, fmt.Errorf("%s: %w: negative idle time %d", command, process.ErrRejected, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
