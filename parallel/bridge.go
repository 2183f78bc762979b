package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chunkseq/chunks"
)

// Bridge turns a cursor into work for an Engine. Every chunk is processed by
// one worker; the monitor and tracer configured through options observe each
// extraction and each processed chunk.
type Bridge[T any] struct {
	cursor *chunks.Cursor[T]
	cfg    config
}

// NewBridge binds cursor to the given options.
func NewBridge[T any](cursor *chunks.Cursor[T], opts ...Option) *Bridge[T] {
	if cursor == nil {
		panic("chunkseq.NewBridge: cursor cannot be nil")
	}
	return &Bridge[T]{cursor: cursor, cfg: newConfig(opts)}
}

// Workers is the configured worker count.
func (b *Bridge[T]) Workers() int { return b.cfg.workers }

// Run processes every remaining chunk with fn on the configured engine.
func (b *Bridge[T]) Run(ctx context.Context, fn WorkFunc[*chunks.Chunk[T]]) error {
	return b.RunWith(ctx, newEngine[*chunks.Chunk[T]](b.cfg), fn)
}

// RunWith is Run on a caller-supplied engine.
func (b *Bridge[T]) RunWith(ctx context.Context, engine Engine[*chunks.Chunk[T]], fn WorkFunc[*chunks.Chunk[T]]) error {
	var stats runStats
	src := observedCursor[T]{cursor: b.cursor, monitor: b.cfg.monitor, stats: &stats}
	err := engine.Run(ctx, src, b.observe(fn, &stats))
	if dropped := stats.extracted.Load() - stats.processed.Load(); dropped > 0 {
		b.cfg.monitor.OnDrop(int(dropped))
	}
	b.cfg.monitor.OnFinish(err)
	return err
}

// runStats counts the chunks of one RunWith call.
type runStats struct {
	extracted atomic.Int64
	processed atomic.Int64
}

func (b *Bridge[T]) observe(fn WorkFunc[*chunks.Chunk[T]], stats *runStats) WorkFunc[*chunks.Chunk[T]] {
	return func(ctx context.Context, c *chunks.Chunk[T]) error {
		size := c.Len()
		ctx, span := b.cfg.tracer.Start(ctx, "chunkseq.chunk", trace.WithAttributes(
			attribute.Int64("chunk.index", int64(c.Index())),
			attribute.Int("chunk.size", size),
		))
		defer span.End()

		start := time.Now()
		err := fn(ctx, c)
		b.cfg.monitor.OnProcess(size, time.Since(start), err)
		stats.processed.Add(1)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

type observedCursor[T any] struct {
	cursor  *chunks.Cursor[T]
	monitor Monitor
	stats   *runStats
}

func (o observedCursor[T]) Extract() (*chunks.Chunk[T], error) {
	start := time.Now()
	c, err := o.cursor.Extract()
	if err == nil {
		o.stats.extracted.Add(1)
		o.monitor.OnExtract(c.Len(), time.Since(start))
	}
	return c, err
}

// ForEachChunk processes every chunk of cursor with fn, in parallel.
func ForEachChunk[T any](ctx context.Context, cursor *chunks.Cursor[T], fn WorkFunc[*chunks.Chunk[T]], opts ...Option) error {
	return NewBridge(cursor, opts...).Run(ctx, fn)
}

// ForEach calls fn for every item of every chunk. Items of one chunk are
// visited in order by a single worker.
func ForEach[T any](ctx context.Context, cursor *chunks.Cursor[T], fn func(T), opts ...Option) error {
	return ForEachChunk(ctx, cursor, func(_ context.Context, c *chunks.Chunk[T]) error {
		for v := range c.All() {
			fn(v)
		}
		return nil
	}, opts...)
}

// TryForEach is ForEach with a fallible fn. The first error stops the
// chunk it happened in and tears the traversal down.
func TryForEach[T any](ctx context.Context, cursor *chunks.Cursor[T], fn func(context.Context, T) error, opts ...Option) error {
	return ForEachChunk(ctx, cursor, func(ctx context.Context, c *chunks.Chunk[T]) error {
		for v := range c.All() {
			if err := fn(ctx, v); err != nil {
				return err
			}
		}
		return nil
	}, opts...)
}

// MapCollect maps every chunk to a value and collects the values in no
// particular order.
func MapCollect[T, R any](ctx context.Context, cursor *chunks.Cursor[T], fn func(*chunks.Chunk[T]) R, opts ...Option) ([]R, error) {
	return TryMapCollect(ctx, cursor, func(_ context.Context, c *chunks.Chunk[T]) (R, error) {
		return fn(c), nil
	}, opts...)
}

// TryMapCollect is MapCollect with a fallible fn. On failure no results are
// returned.
func TryMapCollect[T, R any](ctx context.Context, cursor *chunks.Cursor[T], fn func(context.Context, *chunks.Chunk[T]) (R, error), opts ...Option) ([]R, error) {
	var (
		mu  sync.Mutex
		out []R
	)
	err := ForEachChunk(ctx, cursor, func(ctx context.Context, c *chunks.Chunk[T]) error {
		r, err := fn(ctx, c)
		if err != nil {
			return err
		}
		mu.Lock()
		out = append(out, r)
		mu.Unlock()
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
