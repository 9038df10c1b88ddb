package hookbus

import (
	"context"
	"fmt"
)

// Awaitable is a value that becomes available later. A hook may return one
// instead of a plain value; the dispatcher waits for it before running the
// next hook.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Future is a single-assignment result produced on another goroutine.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(v any, err error) {
	f.value = v
	f.err = err
	close(f.done)
}

// Go runs fn on a new goroutine and returns a future for its result. A panic
// in fn rejects the future.
func Go(fn func() (any, error)) *Future {
	f := newFuture()
	go func() {
		var (
			v   any
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrHookPanicked, r)
			}
			f.resolve(v, err)
		}()
		v, err = fn()
	}()
	return f
}

// Resolved returns a future that is already complete with v.
func Resolved(v any) *Future {
	f := newFuture()
	f.resolve(v, nil)
	return f
}

// Rejected returns a future that is already complete with err.
func Rejected(err error) *Future {
	f := newFuture()
	f.resolve(nil, err)
	return f
}

// Await blocks until the future completes or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the future has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// FireFuture is the pending outcome of Dispatcher.FireAsync.
type FireFuture struct {
	done   chan struct{}
	result Result
	err    error
}

// Await blocks until the fire completes or ctx is done.
func (f *FireFuture) Await(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Done is closed once the fire has completed.
func (f *FireFuture) Done() <-chan struct{} {
	return f.done
}
