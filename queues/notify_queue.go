package queues

import (
	"context"
	"sync"
)

// NotifyQueue is a mutex-guarded ArrayQueue with an optional size limit and
// level-triggered signals, so producers can block while it is full and
// consumers can block while it is empty.
type NotifyQueue[T any] struct {
	mu       sync.Mutex
	q        *ArrayQueue[T]
	limit    int
	closed   bool
	notEmpty chan struct{}
	notFull  chan struct{}
	done     chan struct{}
}

// NewNotifyQueue creates a queue with the given initial capacity.
// A limit <= 0 means the queue never reports full.
func NewNotifyQueue[T any](capacity, limit int) *NotifyQueue[T] {
	return &NotifyQueue[T]{
		q:        NewArrayQueue[T](capacity),
		limit:    limit,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// rearm refills the one-slot signal channels that match the current state.
// Must be called with mu held.
func (nq *NotifyQueue[T]) rearm() {
	if nq.q.Size() > 0 {
		select {
		case nq.notEmpty <- struct{}{}:
		default:
		}
	}
	if nq.limit <= 0 || nq.q.Size() < nq.limit {
		select {
		case nq.notFull <- struct{}{}:
		default:
		}
	}
}

// TryEnqueue adds value unless the queue is full.
// It reports ErrQueueClosed after Close.
func (nq *NotifyQueue[T]) TryEnqueue(value T) (bool, error) {
	nq.mu.Lock()
	defer nq.mu.Unlock()
	if nq.closed {
		return false, ErrQueueClosed
	}
	if nq.limit > 0 && nq.q.Size() >= nq.limit {
		return false, nil
	}
	nq.q.Enqueue(value)
	nq.rearm()
	return true, nil
}

// EnqueueOrWait adds value, blocking while the queue is full.
func (nq *NotifyQueue[T]) EnqueueOrWait(ctx context.Context, value T) error {
	for {
		added, err := nq.TryEnqueue(value)
		if err != nil {
			return err
		}
		if added {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-nq.done:
			return ErrQueueClosed
		case <-nq.notFull:
		}
	}
}

// TryDequeue pops the head element if there is one.
func (nq *NotifyQueue[T]) TryDequeue() (T, bool) {
	nq.mu.Lock()
	defer nq.mu.Unlock()
	v, ok := nq.q.Dequeue()
	if ok {
		nq.rearm()
	}
	return v, ok
}

// DequeueOrWait pops the head element, blocking while the queue is empty.
// It returns false once the queue is closed and drained, or when ctx is done.
func (nq *NotifyQueue[T]) DequeueOrWait(ctx context.Context) (T, bool) {
	for {
		if v, ok := nq.TryDequeue(); ok {
			return v, true
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, false
		case <-nq.done:
			// Close happens after the last enqueue, so one more attempt
			// observes everything that was ever added.
			return nq.TryDequeue()
		case <-nq.notEmpty:
		}
	}
}

// Size returns the number of buffered elements.
func (nq *NotifyQueue[T]) Size() int {
	nq.mu.Lock()
	defer nq.mu.Unlock()
	return nq.q.Size()
}

// Close stops further enqueues. Buffered elements can still be dequeued.
// Closing twice is a no-op.
func (nq *NotifyQueue[T]) Close() {
	nq.mu.Lock()
	defer nq.mu.Unlock()
	if nq.closed {
		return
	}
	nq.closed = true
	close(nq.done)
}
