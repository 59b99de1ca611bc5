package idle

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/blink/pkg/interfaces"
	"github.com/Veraticus/blink/pkg/process"
)

// IoregBackend queries HIDIdleTime from the macOS I/O registry.
type IoregBackend struct {
	timeout time.Duration
	runner  interfaces.Runner
}

// NewIoregBackend creates an ioreg backend bounded by timeout.
func NewIoregBackend(runner interfaces.Runner, timeout time.Duration) *IoregBackend {
	return &IoregBackend{
		timeout: timeout,
		runner:  runner,
	}
}

// Name identifies the backend in logs.
func (b *IoregBackend) Name() string {
	return "ioreg"
}

// IdleTime retrieves the system idle time using ioreg.
func (b *IoregBackend) IdleTime(ctx context.Context) (time.Duration, error) {
	output, err := b.runner.Output(ctx, b.timeout, "ioreg", "-c", "IOHIDSystem", "-d", "4")
	if err != nil {
		return 0, err
	}

	idleNanos, err := parseHIDIdleTime(output)
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w: %v", process.ErrRejected, err)
	}

	return time.Duration(idleNanos), nil
}

// parseHIDIdleTime finds a line of the form `"HIDIdleTime" = 123456789`.
func parseHIDIdleTime(output []byte) (int64, error) {
	for _, line := range bytes.Split(output, []byte("\n")) {
		lineStr := string(bytes.TrimSpace(line))
		if !strings.Contains(lineStr, "HIDIdleTime") {
			continue
		}

		parts := strings.Split(lineStr, "=")
		if len(parts) != 2 {
			continue
		}

		valueStr := strings.TrimSpace(strings.Trim(strings.TrimSpace(parts[1]), "\""))
		value, err := strconv.ParseInt(valueStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse idle time value: %w", err)
		}

		return value, nil
	}

	return 0, fmt.Errorf("HIDIdleTime not found in ioreg output")
}
