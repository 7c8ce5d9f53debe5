// Package dbusconn implements bus.Conn on a godbus connection.
package dbusconn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/bus"
)

// Bus types accepted by Dial.
const (
	TypeSystem  = "system"
	TypeSession = "session"
	TypeAddress = "address"
)

// signalBuffer is the per-subscription queue length.
const signalBuffer = 64

// Options selects the bus to connect to.
type Options struct {
	// Type is one of "system", "session" or "address".
	Type string

	// Address is the bus address when Type is "address",
	// e.g. unix:path=/run/dbus/system_bus_socket.
	Address string
}

// Conn is a bus.Conn backed by godbus.
type Conn struct {
	conn *dbus.Conn
}

var _ bus.Conn = (*Conn)(nil)

// Dial connects and authenticates to the bus described by opts.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	var (
		conn *dbus.Conn
		err  error
	)

	switch strings.ToLower(opts.Type) {
	case "", TypeSystem:
		conn, err = dbus.ConnectSystemBus(dbus.WithContext(ctx))
	case TypeSession:
		conn, err = dbus.ConnectSessionBus(dbus.WithContext(ctx))
	case TypeAddress:
		if opts.Address == "" {
			return nil, fmt.Errorf("bus type %q requires an address", opts.Type)
		}
		conn, err = dbus.Connect(opts.Address, dbus.WithContext(ctx))
	default:
		return nil, fmt.Errorf("unknown bus type %q", opts.Type)
	}
	if err != nil {
		return nil, &bus.TransportError{Method: "connect", Err: err}
	}

	logger.Debug("Connected to message bus", "bus", opts.Type, "name", conn.Names())
	return &Conn{conn: conn}, nil
}

// Call implements bus.Conn.
func (c *Conn) Call(ctx context.Context, obj bus.ObjectRef, method string, args ...any) *bus.Future[*bus.Reply] {
	future := bus.NewFuture[*bus.Reply]()

	ch := make(chan *dbus.Call, 1)
	call := c.conn.Object(obj.Destination, obj.Path).GoWithContext(ctx, method, 0, ch, args...)
	if call.Err != nil {
		future.Resolve(nil, mapError(method, call.Err))
		return future
	}

	go func() {
		select {
		case done := <-ch:
			if done.Err != nil {
				future.Resolve(nil, mapError(method, done.Err))
				return
			}
			future.Resolve(&bus.Reply{Body: done.Body}, nil)
		case <-ctx.Done():
			future.Resolve(nil, &bus.TransportError{Method: method, Err: ctx.Err()})
		}
	}()

	return future
}

// Send implements bus.Conn. The message carries NO_REPLY_EXPECTED so the
// peer does not answer.
func (c *Conn) Send(ctx context.Context, obj bus.ObjectRef, method string, args ...any) error {
	call := c.conn.Object(obj.Destination, obj.Path).CallWithContext(ctx, method, dbus.FlagNoReplyExpected, args...)
	if call.Err != nil {
		return mapError(method, call.Err)
	}
	return nil
}

// Subscribe implements bus.Conn. A match rule is installed on the bus and
// removed again on Close.
func (c *Conn) Subscribe(ctx context.Context, match bus.SignalMatch) (*bus.Subscription, error) {
	opts := matchOptions(match)
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return nil, mapError("AddMatch", err)
	}

	raw := make(chan *dbus.Signal, signalBuffer)
	c.conn.Signal(raw)

	out := make(chan *bus.Signal, signalBuffer)
	stop := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case <-stop:
				return
			case s, ok := <-raw:
				if !ok {
					return
				}
				sig := &bus.Signal{Sender: s.Sender, Path: s.Path, Name: s.Name, Body: s.Body}
				if !match.Matches(sig) {
					continue
				}
				select {
				case out <- sig:
				case <-stop:
					return
				}
			}
		}
	}()

	cancel := func() {
		c.conn.RemoveSignal(raw)
		close(stop)
		if err := c.conn.RemoveMatchSignal(opts...); err != nil {
			logger.Debug("Failed to remove signal match", "member", match.Member, "error", err)
		}
	}

	return bus.NewSubscription(out, cancel), nil
}

// Close implements bus.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func matchOptions(m bus.SignalMatch) []dbus.MatchOption {
	var opts []dbus.MatchOption
	if m.Sender != "" {
		opts = append(opts, dbus.WithMatchSender(m.Sender))
	}
	if m.Path != "" {
		opts = append(opts, dbus.WithMatchObjectPath(m.Path))
	}
	if m.Interface != "" {
		opts = append(opts, dbus.WithMatchInterface(m.Interface))
	}
	if m.Member != "" {
		opts = append(opts, dbus.WithMatchMember(m.Member))
	}
	return opts
}

// mapError converts godbus errors. Error replies from the peer become
// *bus.RemoteError, everything else is a transport failure.
func mapError(method string, err error) error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return remoteError(dbusErr)
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return remoteError(*dbusErrPtr)
	}
	return &bus.TransportError{Method: method, Err: err}
}

func remoteError(e dbus.Error) *bus.RemoteError {
	re := &bus.RemoteError{Name: e.Name}
	if len(e.Body) > 0 {
		if msg, ok := e.Body[0].(string); ok {
			re.Message = msg
		}
	}
	return re
}
