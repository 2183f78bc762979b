// Package workload holds the synthetic traversals chunkbench measures.
// Each workload has a parallel form that runs through the chunk cursor and
// a plain sequential baseline; both produce the same checksum.
package workload

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"chunkseq/chunks"
	"chunkseq/parallel"
)

// ErrUnknownWorkload is returned for a name not in Names.
var ErrUnknownWorkload = errors.New("unknown workload")

const (
	Sum     = "sum"
	Double  = "double"
	Collatz = "collatz"
	Channel = "channel"
)

// collatzMultiplier inflates the starting values so each item costs a few
// hundred steps.
const collatzMultiplier = 1 << 16

// Names lists the known workloads in a stable order.
func Names() []string { return []string{Sum, Double, Collatz, Channel} }

// Params describes one run.
type Params struct {
	Items     int
	ChunkSize int
	Options   []parallel.Option
}

// Report is the outcome of one run.
type Report struct {
	RunID     uuid.UUID     `json:"run_id" yaml:"run_id"`
	Workload  string        `json:"workload" yaml:"workload"`
	Items     int           `json:"items" yaml:"items"`
	ChunkSize int           `json:"chunk_size" yaml:"chunk_size"`
	Chunks    uint64        `json:"chunks" yaml:"chunks"`
	Checksum  uint64        `json:"checksum" yaml:"checksum"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

type runner func(ctx context.Context, p Params) (checksum, chunkCount uint64, err error)

var runners = map[string]runner{
	Sum:     runSum,
	Double:  runDouble,
	Collatz: runCollatz,
	Channel: runChannel,
}

// Run executes the named workload through the chunk cursor and the engine
// selected by p.Options.
func Run(ctx context.Context, name string, p Params) (Report, error) {
	run, ok := runners[name]
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
	}
	if p.Items < 0 {
		return Report{}, fmt.Errorf("workload: negative item count %d", p.Items)
	}
	if p.ChunkSize < 1 {
		return Report{}, fmt.Errorf("workload: %w: got %d", chunks.ErrInvalidSize, p.ChunkSize)
	}

	report := Report{
		RunID:     uuid.New(),
		Workload:  name,
		Items:     p.Items,
		ChunkSize: p.ChunkSize,
	}
	start := time.Now()
	sum, n, err := run(ctx, p)
	report.Elapsed = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("workload %s: %w", name, err)
	}
	report.Checksum = sum
	report.Chunks = n
	return report, nil
}

// Baseline computes the named workload's checksum with a plain loop.
func Baseline(name string, items int) (uint64, error) {
	var total uint64
	switch name {
	case Sum, Channel:
		for i := range items {
			total += uint64(i)
		}
	case Double:
		for i := range items {
			total += uint64(i) * 2
		}
	case Collatz:
		for i := range items {
			total += collatzSteps(uint64(i+1) * collatzMultiplier)
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
	}
	return total, nil
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func runSum(ctx context.Context, p Params) (uint64, uint64, error) {
	cur := chunks.New(chunks.FromSlice(sequence(p.Items)), p.ChunkSize)
	var total atomic.Uint64
	err := parallel.ForEachChunk(ctx, cur, func(_ context.Context, c *chunks.Chunk[int]) error {
		var s uint64
		for v := range c.All() {
			s += uint64(v)
		}
		total.Add(s)
		return nil
	}, p.Options...)
	return total.Load(), cur.Extracted(), err
}

type slot struct {
	value  int
	output *atomic.Uint64
}

// runDouble writes 2*i into output[i] through a zipped (value, slot) source.
func runDouble(ctx context.Context, p Params) (uint64, uint64, error) {
	output := make([]atomic.Uint64, p.Items)
	slots := make([]slot, p.Items)
	for i := range slots {
		slots[i] = slot{value: i, output: &output[i]}
	}

	cur := chunks.New(chunks.FromSlice(slots), p.ChunkSize)
	err := parallel.ForEach(ctx, cur, func(s slot) {
		s.output.Store(uint64(s.value) * 2)
	}, p.Options...)
	if err != nil {
		return 0, cur.Extracted(), err
	}

	var total uint64
	for i := range output {
		total += output[i].Load()
	}
	return total, cur.Extracted(), nil
}

func runCollatz(ctx context.Context, p Params) (uint64, uint64, error) {
	cur := chunks.Of(slices.Values(sequence(p.Items)), p.ChunkSize)
	defer func() { _ = cur.Close() }()

	var total atomic.Uint64
	err := parallel.ForEach(ctx, cur, func(v int) {
		total.Add(collatzSteps(uint64(v+1) * collatzMultiplier))
	}, p.Options...)
	return total.Load(), cur.Extracted(), err
}

// runChannel feeds the cursor from a producer goroutine over a channel.
func runChannel(ctx context.Context, p Params) (uint64, uint64, error) {
	ch := make(chan int, p.ChunkSize)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer close(ch)
		for i := range p.Items {
			select {
			case ch <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	sums, err := parallel.MapCollect(ctx, chunks.New(chunks.FromChannel(ch), p.ChunkSize),
		func(c *chunks.Chunk[int]) uint64 {
			var s uint64
			for v := range c.All() {
				s += uint64(v)
			}
			return s
		}, p.Options...)
	if err != nil {
		return 0, uint64(len(sums)), err
	}

	var total uint64
	for _, s := range sums {
		total += s
	}
	return total, uint64(len(sums)), nil
}

// collatzSteps counts the steps n takes to reach 1.
func collatzSteps(n uint64) uint64 {
	var steps uint64
	for n > 1 {
		if n%2 == 0 {
			n /= 2
		} else {
			n = 3*n + 1
		}
		steps++
	}
	return steps
}
