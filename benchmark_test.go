package chunkseq_test

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"

	"chunkseq/chunks"
	"chunkseq/parallel"
	"chunkseq/workload"
)

// heavyCalc simulates a CPU intensive operation
func heavyCalc(x int) int {
	for i := 0; i < 1000; i++ {
		x = (x + i*i) % 10000
	}
	return x
}

// BenchmarkUnified_ForEach compares a plain loop with chunked traversal on
// every engine, for light and heavy per-item work.
func BenchmarkUnified_ForEach(b *testing.B) {
	size := 100_000
	input := make([]int, size)
	for i := 0; i < size; i++ {
		input[i] = i
	}

	workloads := []struct {
		name string
		fn   func(int) int
	}{
		{name: "Light", fn: func(x int) int { return x * 2 }},
		{name: "Heavy", fn: heavyCalc},
	}
	engines := []parallel.EngineKind{parallel.EngineSerial, parallel.EngineGroup, parallel.EngineQueue}

	for _, wl := range workloads {
		b.Run(wl.name, func(b *testing.B) {
			b.Run("Loop", func(b *testing.B) {
				for b.Loop() {
					var sink int
					for _, v := range input {
						sink += wl.fn(v)
					}
					_ = sink
				}
			})

			for _, engine := range engines {
				for _, chunkSize := range []int{16, 256} {
					b.Run(fmt.Sprintf("%s_N%d", engine, chunkSize), func(b *testing.B) {
						for b.Loop() {
							var sink atomic.Int64
							cur := chunks.Of(slices.Values(input), chunkSize)
							err := parallel.ForEachChunk(context.Background(), cur, func(_ context.Context, c *chunks.Chunk[int]) error {
								var s int
								for v := range c.All() {
									s += wl.fn(v)
								}
								sink.Add(int64(s))
								return nil
							}, parallel.WithEngine(engine))
							if err != nil {
								b.Fatal(err)
							}
							_ = cur.Close()
						}
					})
				}
			}
		})
	}
}

// BenchmarkWorkloads runs the chunkbench workloads on each engine.
func BenchmarkWorkloads(b *testing.B) {
	for _, name := range workload.Names() {
		for _, engine := range []parallel.EngineKind{parallel.EngineSerial, parallel.EngineGroup, parallel.EngineQueue} {
			b.Run(fmt.Sprintf("%s/%s", name, engine), func(b *testing.B) {
				p := workload.Params{
					Items:     1023,
					ChunkSize: 16,
					Options:   []parallel.Option{parallel.WithEngine(engine)},
				}
				for b.Loop() {
					if _, err := workload.Run(context.Background(), name, p); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkCursor_ExtractContended measures extraction alone with every
// goroutine pulling from one cursor.
func BenchmarkCursor_ExtractContended(b *testing.B) {
	cur := chunks.New[int](chunks.SourceFunc[int](func() (int, bool, error) {
		return 1, true, nil
	}), 64)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c, err := cur.Extract()
			if err != nil {
				b.Error(err)
				return
			}
			for range c.All() {
			}
		}
	})
}
