package process

import "errors"

// Failure kinds for an external invocation. Callers only ever match these with
// errors.Is; the raw exec error stays wrapped underneath for logging.
var (
	// ErrUnavailable means the executable could not be found or started.
	ErrUnavailable = errors.New("command unavailable")
	// ErrTimeout means the command did not finish within its budget.
	ErrTimeout = errors.New("command timed out")
	// ErrRejected means the command ran but exited non-zero.
	ErrRejected = errors.New("command rejected")
)

// Kind returns a short label for the failure kind of err, suitable as a log attribute.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRejected):
		return "rejected"
	default:
		return "error"
	}
}
