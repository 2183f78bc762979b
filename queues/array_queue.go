package queues

import "math/bits"

const defaultArrayQueueCapacity = 16

// ArrayQueue is a FIFO ring buffer whose capacity is always a power of two,
// so wrapping an index is a single mask operation.
// It is not safe for concurrent use.
type ArrayQueue[T any] struct {
	buf  []T
	head int
	size int
	mask int
}

// NewArrayQueue returns an empty queue able to hold at least capacity
// elements before it has to grow.
func NewArrayQueue[T any](capacity int) *ArrayQueue[T] {
	if capacity <= 0 {
		capacity = defaultArrayQueueCapacity
	}
	n := ceilPow2(capacity)
	return &ArrayQueue[T]{buf: make([]T, n), mask: n - 1}
}

func ceilPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// grow reallocates the buffer so that at least need elements fit,
// unwrapping the live region to the start of the new buffer.
func (q *ArrayQueue[T]) grow(need int) {
	n := ceilPow2(need)
	next := make([]T, n)
	q.copyOut(next, q.size)
	clear(q.buf)
	q.buf = next
	q.head = 0
	q.mask = n - 1
}

// copyOut copies the first n live elements into dst without consuming them.
func (q *ArrayQueue[T]) copyOut(dst []T, n int) {
	if q.head+n <= len(q.buf) {
		copy(dst, q.buf[q.head:q.head+n])
		return
	}
	k := copy(dst, q.buf[q.head:])
	copy(dst[k:], q.buf[:n-k])
}

// Enqueue appends value at the tail, growing the buffer when full.
func (q *ArrayQueue[T]) Enqueue(value T) {
	if q.size == len(q.buf) {
		q.grow(q.size + 1)
	}
	q.buf[(q.head+q.size)&q.mask] = value
	q.size++
}

// Dequeue pops the head element. The vacated slot is zeroed so the queue
// does not keep the value reachable.
func (q *ArrayQueue[T]) Dequeue() (value T, ok bool) {
	if q.size == 0 {
		return value, false
	}
	value = q.buf[q.head]
	var zero T
	q.buf[q.head] = zero
	q.head = (q.head + 1) & q.mask
	q.size--
	return value, true
}

// DequeueInto pops up to len(dst) elements into dst and returns how many
// were moved.
func (q *ArrayQueue[T]) DequeueInto(dst []T) int {
	n := min(len(dst), q.size)
	if n == 0 {
		return 0
	}
	q.copyOut(dst, n)
	if q.head+n <= len(q.buf) {
		clear(q.buf[q.head : q.head+n])
	} else {
		clear(q.buf[q.head:])
		clear(q.buf[:n-(len(q.buf)-q.head)])
	}
	q.head = (q.head + n) & q.mask
	q.size -= n
	return n
}

func (q *ArrayQueue[T]) Size() int { return q.size }
