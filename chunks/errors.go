package chunks

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is the configuration error for a chunk size below one.
	ErrInvalidSize = errors.New("chunk size must be positive")
	// ErrExhausted signals that the source has no more items.
	// It is the normal end of a traversal, not a failure.
	ErrExhausted = errors.New("no more chunks")
	// ErrPoisoned is returned by every extraction after an earlier one failed
	// while the cursor's mutex was held. The source position can no longer
	// be trusted.
	ErrPoisoned = errors.New("cursor poisoned by an earlier failure")

	errSourcePanicked = errors.New("source panicked during extraction")
)

// SourceError reports a source failure in the middle of an extraction.
// The items pulled before the failure are discarded.
type SourceError struct {
	// Chunk is the extraction index the failure happened in.
	Chunk uint64
	// Pulled is how many items were taken from the source before it failed.
	Pulled int
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("chunkseq: source failed in chunk %d after %d items: %v", e.Chunk, e.Pulled, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// poisonedError ties ErrPoisoned to the failure that caused it so callers
// can match either one with errors.Is.
type poisonedError struct {
	cause error
}

func (e *poisonedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPoisoned, e.cause)
}

func (e *poisonedError) Unwrap() []error { return []error{ErrPoisoned, e.cause} }
