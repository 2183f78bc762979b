package chunks

import "iter"

// Source is a forward-only sequence pulled one item at a time.
// Next returns the next item and true, or false once the sequence has ended.
// A non-nil error means the source failed and the other results are ignored.
//
// A Source does not have to be safe for concurrent use: a Cursor guarantees
// that only one goroutine pulls from it at a time.
type Source[T any] interface {
	Next() (T, bool, error)
}

// SourceFunc adapts a plain pull function to Source.
type SourceFunc[T any] func() (T, bool, error)

func (f SourceFunc[T]) Next() (T, bool, error) { return f() }

// PullSource drives a range-over-func iterator through iter.Pull.
// Close releases the iterator when a traversal is abandoned early.
type PullSource[T any] struct {
	next func() (T, bool)
	stop func()
}

// FromSeq adapts seq to Source.
func FromSeq[T any](seq iter.Seq[T]) *PullSource[T] {
	next, stop := iter.Pull(seq)
	return &PullSource[T]{next: next, stop: stop}
}

func (s *PullSource[T]) Next() (T, bool, error) {
	v, ok := s.next()
	return v, ok, nil
}

// Close stops the underlying iterator. It is safe to call more than once.
func (s *PullSource[T]) Close() error {
	s.stop()
	return nil
}

// PullSource2 drives an iterator that yields (item, error) pairs. The first
// non-nil error is reported as a source failure.
type PullSource2[T any] struct {
	next func() (T, error, bool)
	stop func()
}

// FromSeq2 adapts seq to Source.
func FromSeq2[T any](seq iter.Seq2[T, error]) *PullSource2[T] {
	next, stop := iter.Pull2(seq)
	return &PullSource2[T]{next: next, stop: stop}
}

func (s *PullSource2[T]) Next() (T, bool, error) {
	v, err, ok := s.next()
	if !ok {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Close stops the underlying iterator. It is safe to call more than once.
func (s *PullSource2[T]) Close() error {
	s.stop()
	return nil
}

// FromSlice returns a source over the elements of s.
// The slice must not be modified while the source is in use.
func FromSlice[T any](s []T) Source[T] {
	i := 0
	return SourceFunc[T](func() (T, bool, error) {
		if i >= len(s) {
			var zero T
			return zero, false, nil
		}
		v := s[i]
		i++
		return v, true, nil
	})
}

// FromChannel returns a source that receives from ch until it is closed.
// A receive blocks while ch is empty, so the producer must keep up or close
// the channel; see the package docs on bounded pulls.
func FromChannel[T any](ch <-chan T) Source[T] {
	return SourceFunc[T](func() (T, bool, error) {
		v, ok := <-ch
		return v, ok, nil
	})
}
