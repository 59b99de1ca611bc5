// Package sessionbus makes one-shot method calls on the user's D-Bus session bus.
package sessionbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/Veraticus/blink/pkg/process"
)

const errServiceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"

// Conn is the subset of *dbus.Conn used here.
type Conn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// Dialer opens a private session bus connection.
type Dialer func(ctx context.Context) (Conn, error)

// Dial connects to the session bus named by DBUS_SESSION_BUS_ADDRESS.
func Dial(ctx context.Context) (Conn, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Call connects, invokes method on dest/path within timeout, stores the reply
// into ret and disconnects. Failures are classified with the process error kinds
// so callers treat the bus like any other external helper.
func Call(ctx context.Context, dial Dialer, timeout time.Duration, dest string, path dbus.ObjectPath, method string, ret []interface{}, args ...interface{}) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := dial(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("session bus: %w after %s", process.ErrTimeout, timeout)
		}
		return fmt.Errorf("session bus: %w: %v", process.ErrUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	call := conn.Object(dest, path).CallWithContext(ctx, method, 0, args...)
	if call == nil {
		return fmt.Errorf("%s: %w: no reply", method, process.ErrRejected)
	}
	if err := call.Store(ret...); err != nil {
		return classify(method, timeout, err)
	}
	return nil
}

func classify(method string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %s", method, process.ErrTimeout, timeout)
	}

	var busErr dbus.Error
	if errors.As(err, &busErr) && busErr.Name == errServiceUnknown {
		return fmt.Errorf("%s: %w: %v", method, process.ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w: %v", method, process.ErrRejected, err)
}
