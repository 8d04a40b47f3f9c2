package http

import (
	"context"
	"errors"
	"time"
)

// guard runs op against a context bounded by d and returns whichever finishes
// first. The derived context is always cancelled on return, which aborts an
// in-flight transport call that lost the race.
func guard[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return zero, NewTimeoutError()
	}

	gctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := op(gctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && gctx.Err() != nil {
			return zero, contextError(ctx)
		}
		return r.value, r.err
	case <-gctx.Done():
		return zero, contextError(ctx)
	}
}

// contextError classifies the end of a guarded call. A cancelled parent is a
// network failure, every deadline is a timeout.
func contextError(parent context.Context) *ClientError {
	if errors.Is(parent.Err(), context.Canceled) {
		return NewNetworkError("request canceled", parent.Err())
	}
	return NewTimeoutError()
}
