package realmd

import (
	"context"
	"fmt"
	"io"

	"github.com/godbus/dbus/v5"

	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/bus"
)

// DiagnosticChunk is a fragment of progress text emitted by the service
// while an operation runs. It is informational only.
type DiagnosticChunk struct {
	OperationID OperationID
	Text        string
}

// Scope is the endpoint whose Diagnostics signals are observed: the bus
// name of the service performing the call and, optionally, the object
// path it was called on.
type Scope struct {
	BusName string
	Path    dbus.ObjectPath
}

// ServiceScope observes the realmd service object, where discovery runs.
var ServiceScope = Scope{BusName: BusName, Path: ServicePath}

// ScopeOf observes a realm object.
func ScopeOf(ref RealmRef) Scope {
	return Scope{BusName: ref.BusName, Path: ref.Path}
}

// DiagnosticsSubscription forwards the Diagnostics signals of one
// operation. It must be created before the operation's call is sent, or
// early chunks are lost.
type DiagnosticsSubscription struct {
	id   OperationID
	sub  *bus.Subscription
	done chan struct{}
}

// SubscribeDiagnostics calls onChunk, from a separate goroutine and in
// arrival order, for each Diagnostics signal of operation id emitted within
// scope. Chunks keep flowing until Close, including chunks that arrive
// after the operation has completed.
func SubscribeDiagnostics(ctx context.Context, conn bus.Conn, scope Scope, id OperationID, onChunk func(DiagnosticChunk)) (*DiagnosticsSubscription, error) {
	sub, err := conn.Subscribe(ctx, bus.SignalMatch{
		Sender: scope.BusName,
		Path:   scope.Path,
		Member: DiagnosticsSignal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to diagnostics: %w", err)
	}

	d := &DiagnosticsSubscription{
		id:   id,
		sub:  sub,
		done: make(chan struct{}),
	}
	go d.forward(onChunk)

	return d, nil
}

func (d *DiagnosticsSubscription) forward(onChunk func(DiagnosticChunk)) {
	defer close(d.done)
	for sig := range d.sub.C {
		if !d.id.Matches(sig) {
			continue
		}
		text, _, _ := parseDiagnostics(sig)
		onChunk(DiagnosticChunk{OperationID: d.id, Text: text})
	}
}

// OperationID returns the operation this subscription follows.
func (d *DiagnosticsSubscription) OperationID() OperationID {
	return d.id
}

// Close stops the subscription and returns once every chunk already
// received has been passed to the callback.
func (d *DiagnosticsSubscription) Close() {
	d.sub.Close()
	<-d.done
}

// DiagnosticsWriter returns a chunk callback writing the text to w. Write
// errors are dropped.
func DiagnosticsWriter(w io.Writer) func(DiagnosticChunk) {
	return func(c DiagnosticChunk) {
		if _, err := io.WriteString(w, c.Text); err != nil {
			logger.Debug("Dropped diagnostics output", "operation_id", c.OperationID, "error", err)
		}
	}
}
