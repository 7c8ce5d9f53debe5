package metrics

import (
	"time"
)

// RealmMetrics observes realmd operations.
//
// This interface is optional - pass nil to disable metrics collection.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	wf := &realmd.Workflow{Conn: conn, Metrics: metrics.NewRealmMetrics()}
//
//	// Without metrics (zero overhead)
//	wf := &realmd.Workflow{Conn: conn}
type RealmMetrics interface {
	// ObserveCall records a completed call to the service.
	//
	// Parameters:
	//   - method: member name, e.g. "Discover" or "EnrollWithCredentialCache"
	//   - duration: time from sending the call to its reply or error
	//   - errorName: D-Bus error name, "transport", or empty on success
	ObserveCall(method string, duration time.Duration, errorName string)

	// RecordDiagnostic counts one Diagnostics chunk delivered to the user.
	RecordDiagnostic(operation string)

	// RecordOutcome counts a finished run by action and terminal state.
	RecordOutcome(action string, state string)

	// RecordCancel counts a Cancel request sent to the service.
	RecordCancel()
}

// NewRealmMetrics creates the registered RealmMetrics implementation.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or no
// implementation was linked in (import pkg/metrics/prometheus).
func NewRealmMetrics() RealmMetrics {
	if !IsEnabled() || newRealmMetrics == nil {
		return nil
	}
	return newRealmMetrics()
}

// newRealmMetrics is set by pkg/metrics/prometheus. The indirection avoids
// an import cycle.
var newRealmMetrics func() RealmMetrics

// RegisterRealmMetricsConstructor registers the Prometheus realm metrics
// constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterRealmMetricsConstructor(constructor func() RealmMetrics) {
	newRealmMetrics = constructor
}

// ObserveCall records a call if m is not nil.
func ObserveCall(m RealmMetrics, method string, duration time.Duration, errorName string) {
	if m != nil {
		m.ObserveCall(method, duration, errorName)
	}
}

// RecordDiagnostic records a diagnostics chunk if m is not nil.
func RecordDiagnostic(m RealmMetrics, operation string) {
	if m != nil {
		m.RecordDiagnostic(operation)
	}
}

// RecordOutcome records a terminal state if m is not nil.
func RecordOutcome(m RealmMetrics, action, state string) {
	if m != nil {
		m.RecordOutcome(action, state)
	}
}

// RecordCancel records a cancel request if m is not nil.
func RecordCancel(m RealmMetrics) {
	if m != nil {
		m.RecordCancel()
	}
}
