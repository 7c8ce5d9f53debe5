package bus

import (
	"context"
	"sync"
)

// Future is the pending result of an asynchronous operation. It resolves
// exactly once, with a value or an error; later Resolve calls are ignored.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// NewFuture returns an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future that is already resolved.
func Resolved[T any](value T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(value, err)
	return f
}

// Failed returns a Future already resolved with err.
func Failed[T any](err error) *Future[T] {
	var zero T
	return Resolved(zero, err)
}

// Resolve sets the outcome. It reports whether this call resolved the
// Future; false means it had already been resolved.
func (f *Future[T]) Resolve(value T, err error) bool {
	resolved := false
	f.once.Do(func() {
		if err == nil {
			f.value = value
		}
		f.err = err
		resolved = true
		close(f.done)
	})
	return resolved
}

// Done is closed once the Future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the Future resolves or ctx is done. Giving up on ctx
// does not resolve the Future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then returns a Future resolved with fn applied to the value of f. Errors
// from f are passed through without calling fn.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	next := NewFuture[U]()
	go func() {
		<-f.done
		if f.err != nil {
			var zero U
			next.Resolve(zero, f.err)
			return
		}
		next.Resolve(fn(f.value))
	}()
	return next
}
