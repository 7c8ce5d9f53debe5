package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolvesOnce(t *testing.T) {
	f := NewFuture[int]()

	assert.True(t, f.Resolve(1, nil))
	assert.False(t, f.Resolve(2, nil))
	assert.False(t, f.Resolve(0, errors.New("late")))

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_ConcurrentResolve(t *testing.T) {
	f := NewFuture[int]()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if f.Resolve(i, nil) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one resolver must win")
}

func TestFuture_ErrorDropsValue(t *testing.T) {
	f := Resolved("value", errors.New("boom"))

	v, err := f.Wait(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Empty(t, v)
}

func TestFuture_WaitContext(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-f.Done():
		t.Fatal("abandoning Wait must not resolve the future")
	default:
	}
}

func TestThen(t *testing.T) {
	t.Run("MapsValue", func(t *testing.T) {
		src := NewFuture[int]()
		next := Then(src, func(v int) (string, error) {
			return time.Duration(v).String(), nil
		})
		src.Resolve(int(time.Second), nil)

		v, err := next.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "1s", v)
	})

	t.Run("PassesErrorThrough", func(t *testing.T) {
		called := false
		next := Then(Failed[int](errors.New("transport down")), func(int) (int, error) {
			called = true
			return 0, nil
		})

		_, err := next.Wait(context.Background())
		assert.EqualError(t, err, "transport down")
		assert.False(t, called)
	})

	t.Run("MapperError", func(t *testing.T) {
		next := Then(Resolved(1, nil), func(int) (int, error) {
			return 0, errors.New("bad shape")
		})

		_, err := next.Wait(context.Background())
		assert.EqualError(t, err, "bad shape")
	})
}
