// Package queues holds the buffers chunkseq moves items through: a growable
// ring buffer that backs every extracted chunk, and a bounded blocking queue
// that hands chunks from a feeder goroutine to workers.
package queues

import "errors"

// ErrQueueClosed is returned when enqueueing into a closed NotifyQueue.
var ErrQueueClosed = errors.New("queue is closed")
