package sources

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"chunkseq/chunks"
)

type throttled[T any] struct {
	ctx     context.Context
	src     chunks.Source[T]
	limiter *rate.Limiter
}

// Throttle limits how fast src is pulled. Every pull waits for a token from
// limiter; a cancelled ctx turns the wait into a source failure.
func Throttle[T any](ctx context.Context, src chunks.Source[T], limiter *rate.Limiter) chunks.Source[T] {
	return &throttled[T]{ctx: ctx, src: src, limiter: limiter}
}

func (t *throttled[T]) Next() (T, bool, error) {
	if err := t.limiter.Wait(t.ctx); err != nil {
		var zero T
		return zero, false, fmt.Errorf("sources: throttle: %w", err)
	}
	return t.src.Next()
}

func (t *throttled[T]) Close() error { return closeSource(t.src) }

type mapped[T, R any] struct {
	src chunks.Source[T]
	fn  func(T) (R, error)
}

// Map converts every item of src with fn. An fn error is a source failure.
func Map[T, R any](src chunks.Source[T], fn func(T) (R, error)) chunks.Source[R] {
	return &mapped[T, R]{src: src, fn: fn}
}

func (m *mapped[T, R]) Next() (R, bool, error) {
	var zero R
	v, ok, err := m.src.Next()
	if err != nil || !ok {
		return zero, false, err
	}
	r, err := m.fn(v)
	if err != nil {
		return zero, false, err
	}
	return r, true, nil
}

func (m *mapped[T, R]) Close() error { return closeSource(m.src) }

func closeSource(src any) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
