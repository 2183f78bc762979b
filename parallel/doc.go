/*
Package parallel feeds the chunks of a [chunks.Cursor] to a pool of
workers.

Each chunk is one indivisible unit of work: exactly one worker receives it
and walks its items in source order. Which worker gets which chunk, and the
order side effects happen across chunks, is up to the engine and changes
from run to run.

	cur := chunks.Of(slices.Values(data), 3)
	sums, err := parallel.MapCollect(ctx, cur, func(c *chunks.Chunk[int]) int {
		return sum(c.All())
	}, parallel.WithWorkers(8))

# Engines

An [Engine] drives any [WorkSource], a thread-safe "next unit or
exhausted" pull. Three engines ship with the package:

  - [GroupEngine] runs N workers that each pull straight from the cursor,
    so an idle worker always takes the next chunk. This is the default.
  - [QueueEngine] runs one feeder that extracts chunks into a bounded queue
    and N workers that drain it.
  - [SerialEngine] processes chunks one by one on the calling goroutine and
    serves as the baseline.

# Failures

The first failure wins: a work function error, a source error, or a worker
panic (returned as [*PanicError]) cancels the run so no new chunks are
extracted, waits for in-flight chunks, and is returned to the caller.
Cancelling the caller's context abandons the traversal the same way;
chunks already being processed are not interrupted.
*/
package parallel
