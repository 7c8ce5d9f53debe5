package realmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/realmctl/pkg/bus"
	"github.com/marmos91/realmctl/pkg/bus/bustest"
)

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultIsFirstRealm", func(t *testing.T) {
		for _, relevance := range []int32{-10, 0, 1, 90, 1000} {
			conn := newService(relevance, otherRealm, testRealm)

			result, err := Discover(ctx, conn, "example.com", "op-1", 0).Wait(ctx)
			require.NoError(t, err)
			assert.Equal(t, relevance, result.Relevance)
			assert.Equal(t, []RealmRef{otherRealm, testRealm}, result.Realms)

			realm, err := result.Default()
			require.NoError(t, err)
			assert.Equal(t, otherRealm, realm)
		}
	})

	t.Run("SendsInputAndOperationID", func(t *testing.T) {
		conn := newService(90, testRealm)

		_, err := Discover(ctx, conn, "example.com", "op-7", time.Minute).Wait(ctx)
		require.NoError(t, err)

		calls := conn.CallsTo(ProviderInterface + ".Discover")
		require.Len(t, calls, 1)
		assert.Equal(t, Service, calls[0].Object)
		assert.Equal(t, []any{"example.com", "op-7"}, calls[0].Args)
		deadline, ok := calls[0].Ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("EmptyResultIsNoMatch", func(t *testing.T) {
		conn := newService(0)

		result, err := Discover(ctx, conn, "bogus.test", "op-1", 0).Wait(ctx)
		var noMatch *NoMatchError
		require.ErrorAs(t, err, &noMatch)
		assert.Equal(t, "bogus.test", noMatch.Input)
		assert.Equal(t, "nothing discovered", err.Error())
		assert.Equal(t, KindNoMatch, Classify(err))
		assert.Empty(t, result.Realms)
	})

	t.Run("TransportErrorSurfacedVerbatim", func(t *testing.T) {
		conn := bustest.New()
		want := &bus.TransportError{Method: ProviderInterface + ".Discover", Err: errors.New("connection reset")}
		conn.HandleError(ProviderInterface+".Discover", want)

		_, err := Discover(ctx, conn, "example.com", "op-1", 0).Wait(ctx)
		assert.Same(t, want, err)
		assert.Equal(t, KindTransport, Classify(err))
	})

	t.Run("TimeoutResolvesWithError", func(t *testing.T) {
		conn := bustest.New()
		release := make(chan struct{})
		defer close(release)
		conn.Handle(ProviderInterface+".Discover", func(bustest.Call) ([]any, error) {
			<-release
			return nil, nil
		})

		_, err := Discover(ctx, conn, "example.com", "op-1", 10*time.Millisecond).Wait(ctx)
		require.Error(t, err)
		assert.True(t, bus.IsTransport(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("MalformedReply", func(t *testing.T) {
		conn := bustest.New()
		conn.HandleReply(ProviderInterface+".Discover", "not a number")

		_, err := Discover(ctx, conn, "example.com", "op-1", 0).Wait(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid reply")
	})
}

func TestRealmName(t *testing.T) {
	ctx := context.Background()
	conn := newService(90, testRealm)

	name, err := RealmName(ctx, conn, testRealm)
	require.NoError(t, err)
	assert.Equal(t, "EXAMPLE.COM", name)

	_, err = RealmName(ctx, conn, otherRealm)
	require.Error(t, err)
}
