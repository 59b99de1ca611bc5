// Package testutil provides thread-safe fakes for the external collaborators
// blink talks to: command runners and the session bus.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/blink/pkg/process"
)

// RunnerCall records a single invocation made through MockRunner.
type RunnerCall struct {
	Name     string
	Args     []string
	Timeout  time.Duration
	Detached bool
}

// String renders the call as a shell-like command line.
func (c RunnerCall) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// RunnerResult is the scripted response for a command.
type RunnerResult struct {
	Output []byte
	Err    error
	Delay  time.Duration
}

// MockRunner is a thread-safe mock implementation of interfaces.Runner for testing
type MockRunner struct {
	mu      sync.Mutex
	results map[string]RunnerResult
	calls   []RunnerCall
}

// NewMockRunner creates a new mock runner
func NewMockRunner() *MockRunner {
	return &MockRunner{
		results: make(map[string]RunnerResult),
	}
}

// SetResult scripts the response for every invocation of name.
func (m *MockRunner) SetResult(name string, result RunnerResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[name] = result
}

// Output implements the Runner interface
func (m *MockRunner) Output(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	result := m.record(RunnerCall{Name: name, Args: args, Timeout: timeout})

	if result.Delay > 0 {
		select {
		case <-time.After(result.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return result.Output, result.Err
}

// Start implements the Runner interface
func (m *MockRunner) Start(name string, args ...string) error {
	result := m.record(RunnerCall{Name: name, Args: args, Detached: true})
	return result.Err
}

func (m *MockRunner) record(call RunnerCall) RunnerResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, call)

	result, ok := m.results[call.Name]
	if !ok {
		return RunnerResult{Err: fmt.Errorf("%s: %w", call.Name, process.ErrUnavailable)}
	}
	return result
}

// GetCalls returns a copy of all recorded invocations
func (m *MockRunner) GetCalls() []RunnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]RunnerCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// Clear resets the mock state
func (m *MockRunner) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]RunnerResult)
	m.calls = nil
}
