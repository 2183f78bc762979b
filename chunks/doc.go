/*
Package chunks splits a forward-only sequence into fixed-size,
non-overlapping chunks that can be pulled from many goroutines at once.

A [Cursor] owns its [Source] exclusively. Every call to [Cursor.Extract]
takes the cursor's mutex, pulls up to N items, and hands them back as a
[Chunk]. Calls from different goroutines are linearized, so across the
whole lifetime of a cursor every source item lands in exactly one chunk and
items inside a chunk keep their source order. Once the source ends,
Extract returns [ErrExhausted] forever.

	cur := chunks.Of(slices.Values([]int{1, 1, 2, -2, 6, 0, 3, 1}), 3)
	for c, err := range cur.All() {
		if err != nil {
			return err
		}
		fmt.Println(c.Collect()) // [1 1 2], [-2 6 0], [3 1]
	}

# Sources

Anything with a "next item or end" pull can be a [Source]. [FromSeq] and
[FromSeq2] adapt range-over-func iterators, [FromSlice] and [FromChannel]
cover the in-memory cases, and [SourceFunc] wraps a plain function.

A source pull runs while the cursor's mutex is held, so a slow pull stalls
every other extraction. Sources are expected to return within a bounded
time; the cursor applies no timeout of its own.

# Failures

A source error or a panic raised during a pull poisons the cursor: the
failing Extract returns a [*SourceError] (or re-panics), and every later
call returns [ErrPoisoned] wrapping the original cause. No partial chunk is
ever handed out.
*/
package chunks
