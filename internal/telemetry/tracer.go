package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for realm operations.
const (
	AttrOperationID = "realmd.operation_id"
	AttrMethod      = "realmd.method"
	AttrInput       = "realmd.discovery.input"
	AttrRelevance   = "realmd.discovery.relevance"
	AttrRealmCount  = "realmd.discovery.realms"
	AttrRealm       = "realmd.realm"
	AttrRealmPath   = "realmd.realm.path"
	AttrAction      = "realmd.action"
	AttrCredential  = "realmd.credential"
	AttrPrincipal   = "realmd.principal"
	AttrOutcome     = "realmd.outcome"
	AttrErrorName   = "realmd.error"
)

// Span names.
const (
	SpanWorkflow   = "realmd.workflow"
	SpanDiscover   = "realmd.Discover"
	SpanCredential = "realmd.credential"
	SpanEnroll     = "realmd.Enroll"
	SpanUnenroll   = "realmd.Unenroll"
	SpanLogins     = "realmd.ChangePermittedLogins"
)

// OperationID returns an attribute for a realmd operation id
func OperationID(id string) attribute.KeyValue {
	return attribute.String(AttrOperationID, id)
}

// Method returns an attribute for the D-Bus method called
func Method(name string) attribute.KeyValue {
	return attribute.String(AttrMethod, name)
}

// Input returns an attribute for the discovery input string
func Input(s string) attribute.KeyValue {
	return attribute.String(AttrInput, s)
}

// Relevance returns an attribute for the discovery relevance score
func Relevance(r int32) attribute.KeyValue {
	return attribute.Int(AttrRelevance, int(r))
}

// RealmCount returns an attribute for the number of discovered realms
func RealmCount(n int) attribute.KeyValue {
	return attribute.Int(AttrRealmCount, n)
}

// Realm returns an attribute for a realm display name
func Realm(name string) attribute.KeyValue {
	return attribute.String(AttrRealm, name)
}

// RealmPath returns an attribute for a realm object path
func RealmPath(path string) attribute.KeyValue {
	return attribute.String(AttrRealmPath, path)
}

// Action returns an attribute for enroll or unenroll
func Action(action string) attribute.KeyValue {
	return attribute.String(AttrAction, action)
}

// Credential returns an attribute for the credential kind (never the secret)
func Credential(kind string) attribute.KeyValue {
	return attribute.String(AttrCredential, kind)
}

// Principal returns an attribute for the principal used
func Principal(name string) attribute.KeyValue {
	return attribute.String(AttrPrincipal, name)
}

// Outcome returns an attribute for the terminal state of a run
func Outcome(state string) attribute.KeyValue {
	return attribute.String(AttrOutcome, state)
}

// ErrorName returns an attribute for a D-Bus error name or failure class
func ErrorName(name string) attribute.KeyValue {
	return attribute.String(AttrErrorName, name)
}

// StartRealmSpan starts a span for a call tagged with an operation id.
func StartRealmSpan(ctx context.Context, name, operationID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	if operationID != "" {
		allAttrs = append(allAttrs, OperationID(operationID))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
