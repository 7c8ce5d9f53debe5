package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use them consistently so
// that runs can be followed across log lines.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyAction      = "action"       // join, leave, discover, permit, deny
	KeyOperationID = "operation_id" // realmd operation id
	KeyMethod      = "method"       // bus method, e.g. org.freedesktop.realmd.Provider.Discover
	KeyInput       = "input"        // discovery input string
	KeyRelevance   = "relevance"    // discovery relevance score
	KeyRealm       = "realm"        // realm display name
	KeyRealmPath   = "realm_path"   // realm object path
	KeyPrincipal   = "principal"    // user principal (never the password)
	KeyCredential  = "credential"   // credential kind: password, ccache
	KeyCachePath   = "cache_path"   // credential cache file
	KeyCommand     = "command"      // external command
	KeyExitCode    = "exit_code"
	KeyState       = "state" // workflow state

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorName  = "error_name" // D-Bus error name
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// OperationID returns a slog.Attr for a realmd operation id
func OperationID(id string) slog.Attr {
	return slog.String(KeyOperationID, id)
}

// Method returns a slog.Attr for a bus method
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Realm returns a slog.Attr for a realm name
func Realm(name string) slog.Attr {
	return slog.String(KeyRealm, name)
}

// Principal returns a slog.Attr for a user principal
func Principal(p string) slog.Attr {
	return slog.String(KeyPrincipal, p)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
