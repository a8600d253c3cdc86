package shell

import (
	"context"
	"time"
)

type outcome[T any] struct {
	value T
	err   error
}

// bounded runs fn and stops waiting once ctx is done, even if fn ignores ctx.
// A late result is discarded.
func bounded[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		value, err := fn(ctx)
		done <- outcome[T]{value: value, err: err}
	}()
	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// withTimeout applies d when it is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
