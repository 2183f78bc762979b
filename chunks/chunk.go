package chunks

import (
	"iter"

	"chunkseq/queues"
)

// Chunk is an ordered group of at most N items taken from a source in one
// extraction. It belongs to a single consumer and is not synchronized.
// Items come out in source order and each one comes out once.
type Chunk[T any] struct {
	items *queues.ArrayQueue[T]
	index uint64
}

// initialChunkCapacity caps the up-front buffer of a chunk. Larger chunks
// grow as items arrive, so memory follows what the source yields, not N.
const initialChunkCapacity = 64

func newChunk[T any](index uint64, size int) *Chunk[T] {
	return &Chunk[T]{items: queues.NewArrayQueue[T](min(size, initialChunkCapacity)), index: index}
}

// Next pops the next item. After the last item it keeps returning false.
func (c *Chunk[T]) Next() (T, bool) {
	return c.items.Dequeue()
}

// Len is the number of items not yet popped.
func (c *Chunk[T]) Len() int { return c.items.Size() }

// Index is the zero-based position of this chunk in extraction order.
// Sorting chunks by Index and concatenating them reproduces the source.
func (c *Chunk[T]) Index() uint64 { return c.index }

// All ranges over the remaining items, popping each one.
// Stopping the range early leaves the rest in the chunk.
func (c *Chunk[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := c.items.Dequeue()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Collect drains the remaining items into a new slice.
func (c *Chunk[T]) Collect() []T {
	out := make([]T, c.items.Size())
	c.items.DequeueInto(out)
	return out
}
