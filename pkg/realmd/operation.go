package realmd

import (
	"github.com/google/uuid"

	"github.com/marmos91/realmctl/pkg/bus"
)

// OperationID names one long-running call. It is passed with the call,
// carried by the Diagnostics signals the call produces and used to cancel
// it.
type OperationID string

// NewOperationID returns an identifier unique to this process.
func NewOperationID() OperationID {
	return OperationID("realmctl-" + uuid.NewString())
}

// String returns the identifier as sent on the bus.
func (id OperationID) String() string { return string(id) }

// Matches reports whether sig is a Diagnostics signal of this operation.
// Signals that carry no operation identifier come from services predating
// operation ids and are attributed to the outstanding operation.
func (id OperationID) Matches(sig *bus.Signal) bool {
	_, op, ok := parseDiagnostics(sig)
	if !ok {
		return false
	}
	return op == "" || op == string(id)
}

// parseDiagnostics extracts the text and operation id of a Diagnostics
// signal. The body is (s data, s operation_id), or (s data) for legacy
// services.
func parseDiagnostics(sig *bus.Signal) (text, op string, ok bool) {
	if sig == nil || sig.Member() != DiagnosticsSignal || len(sig.Body) == 0 {
		return "", "", false
	}
	text, ok = sig.Body[0].(string)
	if !ok {
		return "", "", false
	}
	if len(sig.Body) > 1 {
		op, _ = sig.Body[1].(string)
	}
	return text, op, true
}
