package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/Veraticus/blink/pkg/sessionbus"
)

// BusCall records a method call made on FakeBus.
type BusCall struct {
	Dest   string
	Path   dbus.ObjectPath
	Method string
	Args   []interface{}
}

// FakeBus is a thread-safe stand-in for the session bus. Every method call is
// answered with the scripted reply body or error.
type FakeBus struct {
	mu      sync.Mutex
	dialErr error
	replies map[string]*dbus.Call
	calls   []BusCall
	closed  int
}

// NewFakeBus creates a fake bus with no scripted replies.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		replies: make(map[string]*dbus.Call),
	}
}

// SetDialError makes Dial fail with err.
func (b *FakeBus) SetDialError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialErr = err
}

// SetReply scripts a successful reply body for method.
func (b *FakeBus) SetReply(method string, body ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[method] = &dbus.Call{Body: body}
}

// SetError scripts an error reply for method.
func (b *FakeBus) SetError(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[method] = &dbus.Call{Err: err}
}

// Dial implements sessionbus.Dialer.
func (b *FakeBus) Dial(ctx context.Context) (sessionbus.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dialErr != nil {
		return nil, b.dialErr
	}
	return &fakeConn{bus: b}, nil
}

// GetCalls returns a copy of all recorded method calls.
func (b *FakeBus) GetCalls() []BusCall {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]BusCall, len(b.calls))
	copy(result, b.calls)
	return result
}

// GetClosedCount returns how many connections were closed.
func (b *FakeBus) GetClosedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *FakeBus) call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args []interface{}) *dbus.Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, BusCall{Dest: dest, Path: path, Method: method, Args: args})

	if err := ctx.Err(); err != nil {
		return &dbus.Call{Err: err}
	}

	reply, ok := b.replies[method]
	if !ok {
		return &dbus.Call{Err: dbus.Error{
			Name: "org.freedesktop.DBus.Error.ServiceUnknown",
			Body: []interface{}{"The name is not activatable"},
		}}
	}
	return &dbus.Call{Body: reply.Body, Err: reply.Err}
}

type fakeConn struct {
	bus *FakeBus
}

func (c *fakeConn) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	return &fakeObject{bus: c.bus, dest: dest, path: path}
}

func (c *fakeConn) Close() error {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	c.bus.closed++
	return nil
}

// fakeObject only implements CallWithContext; the embedded interface is nil and
// any other method panics.
type fakeObject struct {
	dbus.BusObject
	bus  *FakeBus
	dest string
	path dbus.ObjectPath
}

func (o *fakeObject) CallWithContext(ctx context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	return o.bus.call(ctx, o.dest, o.path, method, args)
}

// ErrNoBus is a convenient dial error for tests.
var ErrNoBus = errors.New("dial unix /run/user/1000/bus: connect: no such file or directory")
