package persistence

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lazy establishes a resource on first use. Concurrent first callers share a
// single in-flight attempt. A successful result is kept for the life of the
// Lazy; a failed attempt is not, so the next caller tries again.
type Lazy[T any] struct {
	open  func(ctx context.Context) (T, error)
	group singleflight.Group

	mu    sync.RWMutex
	value T
	ready bool
}

// NewLazy wraps open. open receives a context detached from the caller's
// cancellation so one abandoning caller does not fail the shared attempt.
func NewLazy[T any](open func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{open: open}
}

// Get returns the resource, opening it if needed.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if value, ok := l.Peek(); ok {
		return value, nil
	}

	ch := l.group.DoChan("open", func() (any, error) {
		if value, ok := l.Peek(); ok {
			return value, nil
		}
		value, err := l.open(context.WithoutCancel(ctx))
		if err != nil {
			return value, err
		}
		l.mu.Lock()
		l.value, l.ready = value, true
		l.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		value, _ := res.Val.(T)
		return value, nil
	}
}

// Peek returns the resource if it has already been established.
func (l *Lazy[T]) Peek() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.ready
}

// Reset forgets the established resource and returns it, if any.
func (l *Lazy[T]) Reset() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	value, ready := l.value, l.ready
	var zero T
	l.value, l.ready = zero, false
	return value, ready
}
