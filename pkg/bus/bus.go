// Package bus defines the message-bus connection used to talk to the realmd
// service.
//
// The Conn interface is deliberately small: asynchronous method calls that
// resolve a Future, fire-and-forget sends, and signal subscriptions. The
// dbusconn package implements it on top of godbus; bustest provides an
// in-memory implementation for tests.
package bus

import (
	"context"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// PropertiesInterface is the standard D-Bus properties interface.
const PropertiesInterface = "org.freedesktop.DBus.Properties"

// ObjectRef locates a remote object: the bus name that owns it and its
// object path.
type ObjectRef struct {
	Destination string
	Path        dbus.ObjectPath
}

// String returns "destination:path".
func (o ObjectRef) String() string {
	return o.Destination + ":" + string(o.Path)
}

// Conn is a full-duplex connection to a message bus.
type Conn interface {
	// Call sends a method call and returns the pending reply. method is the
	// fully qualified "interface.Member" name. The returned Future resolves
	// exactly once, with either the reply or an error.
	Call(ctx context.Context, obj ObjectRef, method string, args ...any) *Future[*Reply]

	// Send sends a method call that expects no reply.
	Send(ctx context.Context, obj ObjectRef, method string, args ...any) error

	// Subscribe registers interest in signals accepted by match. Signals
	// are delivered on the subscription channel until Close is called.
	Subscribe(ctx context.Context, match SignalMatch) (*Subscription, error)

	// Close releases the connection.
	Close() error
}

// Reply is the body of a successful method return.
type Reply struct {
	Body []any
}

// Store decodes the reply body into dest, one pointer per body element.
func (r *Reply) Store(dest ...any) error {
	if r == nil {
		return dbus.Store(nil, dest...)
	}
	return dbus.Store(r.Body, dest...)
}

// Signal is a broadcast signal received from the bus.
type Signal struct {
	Sender string
	Path   dbus.ObjectPath
	Name   string // "interface.Member"
	Body   []any
}

// Interface returns the interface part of the signal name.
func (s *Signal) Interface() string {
	if i := strings.LastIndexByte(s.Name, '.'); i >= 0 {
		return s.Name[:i]
	}
	return ""
}

// Member returns the member part of the signal name.
func (s *Signal) Member() string {
	if i := strings.LastIndexByte(s.Name, '.'); i >= 0 {
		return s.Name[i+1:]
	}
	return s.Name
}

// SignalMatch selects signals. Empty fields match anything.
//
// Sender is only used to build the bus-side match rule: the bus resolves
// well-known names, while received signals carry the unique name of the
// emitter, so Matches does not compare it.
type SignalMatch struct {
	Sender    string
	Path      dbus.ObjectPath
	Interface string
	Member    string
}

// Matches reports whether s is accepted by m.
func (m SignalMatch) Matches(s *Signal) bool {
	if s == nil {
		return false
	}
	if m.Path != "" && m.Path != s.Path {
		return false
	}
	if m.Interface != "" && m.Interface != s.Interface() {
		return false
	}
	if m.Member != "" && m.Member != s.Member() {
		return false
	}
	return true
}

// Subscription delivers the signals accepted by one SignalMatch.
type Subscription struct {
	// C receives matching signals. It is closed once the subscription has
	// been closed and all queued signals were delivered.
	C <-chan *Signal

	once   sync.Once
	cancel func()
}

// NewSubscription wraps a signal channel. cancel is called once, by the
// first Close.
func NewSubscription(c <-chan *Signal, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
