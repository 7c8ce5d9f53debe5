package realmd

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/realmctl/pkg/bus/bustest"
)

func collect() (func(DiagnosticChunk), func() []string) {
	var (
		mu     sync.Mutex
		chunks []string
	)
	return func(c DiagnosticChunk) {
			mu.Lock()
			defer mu.Unlock()
			chunks = append(chunks, c.Text)
		}, func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), chunks...)
		}
}

func TestSubscribeDiagnostics(t *testing.T) {
	t.Run("FiltersByOperation", func(t *testing.T) {
		conn := bustest.New()
		onChunk, chunks := collect()

		sub, err := SubscribeDiagnostics(context.Background(), conn, ServiceScope, "op-1", onChunk)
		require.NoError(t, err)
		assert.Equal(t, OperationID("op-1"), sub.OperationID())

		conn.Emit(diagnostics(ServicePath, " * Resolving: _ldap._tcp.example.com\n", "op-1"))
		conn.Emit(diagnostics(ServicePath, " * other run\n", "op-2"))
		conn.Emit(diagnostics(ServicePath, " * legacy\n", ""))
		sub.Close()

		assert.Equal(t, []string{" * Resolving: _ldap._tcp.example.com\n", " * legacy\n"}, chunks())
		assert.Zero(t, conn.OpenSubscriptions())
	})

	t.Run("ScopedToPath", func(t *testing.T) {
		conn := bustest.New()
		onChunk, chunks := collect()

		sub, err := SubscribeDiagnostics(context.Background(), conn, ScopeOf(testRealm), "op-1", onChunk)
		require.NoError(t, err)

		conn.Emit(diagnostics(ServicePath, "service\n", "op-1"))
		conn.Emit(diagnostics(testRealm.Path, "realm\n", "op-1"))
		sub.Close()

		assert.Equal(t, []string{"realm\n"}, chunks())
	})

	t.Run("QueuedChunksDrainedOnClose", func(t *testing.T) {
		conn := bustest.New()
		onChunk, chunks := collect()

		sub, err := SubscribeDiagnostics(context.Background(), conn, ServiceScope, "op-1", onChunk)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			conn.Emit(diagnostics(ServicePath, "x", "op-1"))
		}
		sub.Close()

		assert.Len(t, chunks(), 10)
	})

	t.Run("ClosedConnection", func(t *testing.T) {
		conn := bustest.New()
		require.NoError(t, conn.Close())

		_, err := SubscribeDiagnostics(context.Background(), conn, ServiceScope, "op-1", func(DiagnosticChunk) {})
		require.Error(t, err)
	})
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, errors.New("broken pipe")
}

func TestDiagnosticsWriter(t *testing.T) {
	t.Run("WritesText", func(t *testing.T) {
		var sb strings.Builder
		DiagnosticsWriter(&sb)(DiagnosticChunk{OperationID: "op-1", Text: " * Success\n"})
		assert.Equal(t, " * Success\n", sb.String())
	})

	t.Run("SwallowsWriteErrors", func(t *testing.T) {
		w := &failingWriter{}
		assert.NotPanics(t, func() {
			DiagnosticsWriter(w)(DiagnosticChunk{Text: "lost"})
		})
		assert.Equal(t, 1, w.writes)
	})
}
