// Package bustest provides an in-memory bus.Conn for tests.
//
// Method calls are dispatched to registered handlers, each in its own
// goroutine, so a handler may block to simulate a long-running remote call.
// Properties registered with SetProperty answer Properties.Get calls.
package bustest

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/marmos91/realmctl/pkg/bus"
)

// UnknownMethod is the error name returned for calls without a handler.
const UnknownMethod = "org.freedesktop.DBus.Error.UnknownMethod"

// Call is one recorded method call.
type Call struct {
	Ctx     context.Context
	Object  bus.ObjectRef
	Method  string
	Args    []any
	NoReply bool
}

// Handler answers a method call with a reply body or an error.
type Handler func(call Call) ([]any, error)

type propertyKey struct {
	obj   bus.ObjectRef
	iface string
	name  string
}

type subscription struct {
	match  bus.SignalMatch
	ch     chan *bus.Signal
	closed bool
}

// Conn is an in-memory bus.Conn.
type Conn struct {
	mu         sync.Mutex
	handlers   map[string]Handler
	properties map[propertyKey]any
	calls      []Call
	subs       []*subscription
	closed     bool
	callSeen   *sync.Cond
}

var _ bus.Conn = (*Conn)(nil)

// New returns an empty Conn.
func New() *Conn {
	c := &Conn{
		handlers:   make(map[string]Handler),
		properties: make(map[propertyKey]any),
	}
	c.callSeen = sync.NewCond(&c.mu)
	return c
}

// Handle registers h for method ("interface.Member").
func (c *Conn) Handle(method string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = h
}

// HandleReply registers a handler that always replies with body.
func (c *Conn) HandleReply(method string, body ...any) {
	c.Handle(method, func(Call) ([]any, error) { return body, nil })
}

// HandleError registers a handler that always fails with err.
func (c *Conn) HandleError(method string, err error) {
	c.Handle(method, func(Call) ([]any, error) { return nil, err })
}

// SetProperty stores a value returned by Properties.Get.
func (c *Conn) SetProperty(obj bus.ObjectRef, iface, name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties[propertyKey{obj, iface, name}] = value
}

// Emit delivers sig to every open subscription that matches it.
func (c *Conn) Emit(sig bus.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		if s.closed || !s.match.Matches(&sig) {
			continue
		}
		copied := sig
		s.ch <- &copied
	}
}

// Calls returns every recorded call, in order.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallsTo returns the recorded calls of one method.
func (c *Conn) CallsTo(method string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// WaitForCall blocks until method has been called at least n times.
func (c *Conn) WaitForCall(method string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.countLocked(method) < n {
		c.callSeen.Wait()
	}
}

// OpenSubscriptions returns the number of subscriptions not yet closed.
func (c *Conn) OpenSubscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.subs {
		if !s.closed {
			n++
		}
	}
	return n
}

// Call implements bus.Conn.
func (c *Conn) Call(ctx context.Context, obj bus.ObjectRef, method string, args ...any) *bus.Future[*bus.Reply] {
	future := bus.NewFuture[*bus.Reply]()

	call := Call{Ctx: ctx, Object: obj, Method: method, Args: args}
	h, err := c.dispatch(call)
	if err != nil {
		future.Resolve(nil, err)
		return future
	}

	go func() {
		body, err := h(call)
		if err != nil {
			future.Resolve(nil, err)
			return
		}
		future.Resolve(&bus.Reply{Body: body}, nil)
	}()
	go func() {
		select {
		case <-ctx.Done():
			future.Resolve(nil, &bus.TransportError{Method: method, Err: ctx.Err()})
		case <-future.Done():
		}
	}()

	return future
}

// Send implements bus.Conn. The handler, if any, runs in the background and
// its result is discarded.
func (c *Conn) Send(ctx context.Context, obj bus.ObjectRef, method string, args ...any) error {
	call := Call{Ctx: ctx, Object: obj, Method: method, Args: args, NoReply: true}
	h, err := c.dispatch(call)
	if err != nil {
		if _, unknown := err.(*bus.RemoteError); unknown {
			return nil
		}
		return err
	}
	go func() { _, _ = h(call) }()
	return nil
}

// Subscribe implements bus.Conn.
func (c *Conn) Subscribe(_ context.Context, match bus.SignalMatch) (*bus.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, bus.ErrClosed
	}

	s := &subscription{match: match, ch: make(chan *bus.Signal, 64)}
	c.subs = append(c.subs, s)

	return bus.NewSubscription(s.ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		s.closed = true
		close(s.ch)
	}), nil
}

// Close implements bus.Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// dispatch records call and returns its handler.
func (c *Conn) dispatch(call Call) (Handler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &bus.TransportError{Method: call.Method, Err: bus.ErrClosed}
	}

	c.calls = append(c.calls, call)
	c.callSeen.Broadcast()

	if h, ok := c.handlers[call.Method]; ok {
		return h, nil
	}
	if call.Method == bus.PropertiesInterface+".Get" && len(call.Args) == 2 {
		iface, _ := call.Args[0].(string)
		name, _ := call.Args[1].(string)
		if v, ok := c.properties[propertyKey{call.Object, iface, name}]; ok {
			return func(Call) ([]any, error) { return []any{dbus.MakeVariant(v)}, nil }, nil
		}
		return nil, &bus.RemoteError{
			Name:    "org.freedesktop.DBus.Error.UnknownProperty",
			Message: fmt.Sprintf("no such property %s.%s", iface, name),
		}
	}
	return nil, &bus.RemoteError{Name: UnknownMethod, Message: "no handler for " + call.Method}
}

func (c *Conn) countLocked(method string) int {
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}
