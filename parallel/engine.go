package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"chunkseq/chunks"
	"chunkseq/queues"
)

// WorkSource hands out units of work. Extract must be safe for concurrent
// use and return chunks.ErrExhausted once no units are left.
// *chunks.Cursor[T] is a WorkSource[*chunks.Chunk[T]].
type WorkSource[U any] interface {
	Extract() (U, error)
}

// WorkFunc processes one unit.
type WorkFunc[U any] func(ctx context.Context, unit U) error

// Engine distributes the units of a WorkSource over workers. Run returns
// after the source is exhausted and every unit has been processed, or after
// the first failure once in-flight units have finished. No unit is started
// after a failure; units already extracted but not started are dropped.
type Engine[U any] interface {
	Run(ctx context.Context, src WorkSource[U], work WorkFunc[U]) error
}

// PanicError is a panic recovered from a worker, either inside the work
// function or inside the source while a unit was being extracted.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("chunkseq: worker panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

func extractSafe[U any](src WorkSource[U]) (unit U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return src.Extract()
}

func workSafe[U any](ctx context.Context, work WorkFunc[U], unit U) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return work(ctx, unit)
}

// pull extracts the next unit unless ctx is already done.
// done is true on exhaustion; err is the reason to stop otherwise.
func pull[U any](ctx context.Context, src WorkSource[U]) (unit U, done bool, err error) {
	if err = ctx.Err(); err != nil {
		return unit, false, err
	}
	unit, err = extractSafe(src)
	if errors.Is(err, chunks.ErrExhausted) {
		return unit, true, nil
	}
	return unit, false, err
}

// GroupEngine runs Workers goroutines under an errgroup. Each one pulls a
// unit, processes it, and goes back for more, so load balances itself.
type GroupEngine[U any] struct {
	// Workers below one means runtime.GOMAXPROCS(0).
	Workers int
}

func (e GroupEngine[U]) Run(ctx context.Context, src WorkSource[U], work WorkFunc[U]) error {
	g, gctx := errgroup.WithContext(ctx)
	for range workerCount(e.Workers) {
		g.Go(func() error {
			for {
				unit, done, err := pull(gctx, src)
				if done || err != nil {
					return err
				}
				if err := workSafe(gctx, work, unit); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// QueueEngine extracts units on a single feeder goroutine into a bounded
// queue that Workers goroutines drain. Extraction never contends with
// itself, and the feeder stays at most Depth units ahead.
type QueueEngine[U any] struct {
	// Workers below one means runtime.GOMAXPROCS(0).
	Workers int
	// Depth below one means twice the worker count.
	Depth int
}

func (e QueueEngine[U]) Run(ctx context.Context, src WorkSource[U], work WorkFunc[U]) error {
	workers := workerCount(e.Workers)
	depth := e.Depth
	if depth < 1 {
		depth = workers * defaultQueueDepthPerWorker
	}
	q := queues.NewNotifyQueue[U](depth, depth)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer q.Close()
		for {
			unit, done, err := pull(gctx, src)
			if done || err != nil {
				return err
			}
			if err := q.EnqueueOrWait(gctx, unit); err != nil {
				return err
			}
		}
	})
	for range workers {
		g.Go(func() error {
			for {
				unit, ok := q.DequeueOrWait(gctx)
				if !ok {
					// drained after Close, or torn down by a failure
					return gctx.Err()
				}
				// a failed sibling leaves units buffered; drop them
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := workSafe(gctx, work, unit); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// SerialEngine processes units one at a time on the calling goroutine.
type SerialEngine[U any] struct{}

func (SerialEngine[U]) Run(ctx context.Context, src WorkSource[U], work WorkFunc[U]) error {
	for {
		unit, done, err := pull(ctx, src)
		if done || err != nil {
			return err
		}
		if err := workSafe(ctx, work, unit); err != nil {
			return err
		}
	}
}

func newEngine[U any](cfg config) Engine[U] {
	switch cfg.engine {
	case EngineQueue:
		return QueueEngine[U]{Workers: cfg.workers, Depth: cfg.queueDepth}
	case EngineSerial:
		return SerialEngine[U]{}
	default:
		return GroupEngine[U]{Workers: cfg.workers}
	}
}
