// Package process runs the external helpers blink depends on (idle probes,
// notification tools) and classifies their failures.
package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	lookPath func(file string) (string, error)
}

// NewExecRunner creates a runner that resolves executables on PATH.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		lookPath: exec.LookPath,
	}
}

// Output runs name with args and returns its standard output.
// The command is killed once timeout elapses.
func (r *ExecRunner) Output(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	path, err := r.lookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrUnavailable, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// #nosec G204 -- command names come from configuration, not user input
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = timeout

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w after %s", name, ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("%s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, fmt.Errorf("%s: %w: exit status %d", name, ErrRejected, exitErr.ExitCode())
	}

	return nil, fmt.Errorf("%s: %w: %v", name, ErrUnavailable, err)
}

// Start launches name detached with its output discarded and does not wait for it.
// The child is reaped in the background once it exits.
func (r *ExecRunner) Start(name string, args ...string) error {
	path, err := r.lookPath(name)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrUnavailable, err)
	}

	// #nosec G204 -- command names come from configuration, not user input
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrUnavailable, err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
