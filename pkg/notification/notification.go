// Package notification delivers desktop alerts through an ordered chain of
// mechanisms, stopping at the first one that accepts the request.
package notification

import (
	"context"
	"errors"
	"time"
)

// ErrUndelivered is returned when every mechanism failed.
var ErrUndelivered = errors.New("notification undelivered")

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification represents a notification to be sent.
type Notification struct {
	AppName  string
	Title    string
	Body     string
	Duration time.Duration // how long the alert should stay on screen
}

// TimeoutMillis returns Duration in whole milliseconds.
func (n Notification) TimeoutMillis() int32 {
	return int32(n.Duration / time.Millisecond)
}

// Notifier sends notifications.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}

// Mechanism is one way of putting an alert on screen. Attempt returns nil if
// the request was accepted; that is not a guarantee it was displayed.
type Mechanism interface {
	Name() string
	Attempt(ctx context.Context, notification Notification) error
}
