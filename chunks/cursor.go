package chunks

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
)

// State is the lifecycle position of a Cursor.
type State int

const (
	// Active means the source may still yield items.
	Active State = iota
	// Exhausted is terminal: the source ended or the cursor was closed.
	Exhausted
	// Poisoned is terminal: an extraction failed while the mutex was held.
	Poisoned
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Exhausted:
		return "exhausted"
	case Poisoned:
		return "poisoned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cursor hands out consecutive chunks of a Source. All methods are safe for
// concurrent use. A cursor serves a single traversal and is never rewound.
type Cursor[T any] struct {
	mu        sync.Mutex
	src       Source[T]
	size      int
	state     State
	cause     error
	extracted uint64
}

// New returns a cursor that splits src into chunks of size items.
// It panics with an error wrapping ErrInvalidSize when size < 1.
func New[T any](src Source[T], size int) *Cursor[T] {
	c, err := NewChecked(src, size)
	if err != nil {
		panic(fmt.Errorf("chunkseq.New: %w", err))
	}
	return c
}

// NewChecked is New for callers that take the size from configuration:
// an invalid size is returned as an error instead of a panic.
func NewChecked[T any](src Source[T], size int) (*Cursor[T], error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if src == nil {
		panic("chunkseq.New: source cannot be nil")
	}
	return &Cursor[T]{src: src, size: size}, nil
}

// Of splits seq into chunks of size items. It panics when size < 1.
func Of[T any](seq iter.Seq[T], size int) *Cursor[T] {
	if size < 1 {
		panic(fmt.Errorf("chunkseq.Of: %w: got %d", ErrInvalidSize, size))
	}
	return New[T](FromSeq(seq), size)
}

// Size is the maximum number of items per chunk.
func (c *Cursor[T]) Size() int { return c.size }

// State reports where the cursor is in its lifecycle.
func (c *Cursor[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Extracted is the number of chunks handed out so far.
func (c *Cursor[T]) Extracted() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extracted
}

// Extract pulls up to Size items from the source and returns them as a
// chunk. It returns ErrExhausted when the source has nothing left.
//
// The source is pulled with the cursor's mutex held, so concurrent callers
// never see overlapping items and each chunk keeps source order.
// A source error is returned as a *SourceError; it, or a panic raised by
// the source, poisons the cursor and every later call returns an error
// matching ErrPoisoned.
func (c *Cursor[T]) Extract() (*Chunk[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Exhausted:
		return nil, ErrExhausted
	case Poisoned:
		return nil, &poisonedError{cause: c.cause}
	}

	chunk := newChunk[T](c.extracted, c.size)
	settled := false
	defer func() {
		if settled {
			return
		}
		// Reached through a source error or a panic unwinding past us.
		c.state = Poisoned
		if c.cause == nil {
			c.cause = errSourcePanicked
		}
	}()

	for chunk.Len() < c.size {
		v, ok, err := c.src.Next()
		if err != nil {
			serr := &SourceError{Chunk: c.extracted, Pulled: chunk.Len(), Err: err}
			c.cause = serr
			return nil, serr
		}
		if !ok {
			c.state = Exhausted
			break
		}
		chunk.items.Enqueue(v)
	}
	settled = true

	if chunk.Len() == 0 {
		return nil, ErrExhausted
	}
	c.extracted++
	return chunk, nil
}

// All ranges over the remaining chunks in extraction order. Iteration ends
// at exhaustion; any other error is yielded once and ends the range.
func (c *Cursor[T]) All() iter.Seq2[*Chunk[T], error] {
	return func(yield func(*Chunk[T], error) bool) {
		for {
			chunk, err := c.Extract()
			if errors.Is(err, ErrExhausted) {
				return
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// Close ends the traversal. Later extractions return ErrExhausted, and the
// source is closed if it implements io.Closer. Chunks already handed out
// stay valid.
func (c *Cursor[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Active {
		c.state = Exhausted
	}
	if closer, ok := c.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
