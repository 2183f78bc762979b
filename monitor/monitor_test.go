package monitor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"chunkseq/chunks"
	"chunkseq/monitor"
	"chunkseq/parallel"
)

func items(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPrometheus_RecordsTraversal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitor.NewPrometheus("chunkseq_test", reg)

	cur := chunks.New(chunks.FromSlice(items(50)), 8)
	err := parallel.ForEach(context.Background(), cur, func(int) {},
		parallel.WithMonitor(m), parallel.WithWorkers(4))
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg,
		"chunkseq_test_chunks_extracted_total",
		"chunkseq_test_items_extracted_total",
		"chunkseq_test_runs_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				values[mf.GetName()] = g.GetValue()
			}
		}
	}
	assert.Equal(t, 7.0, values["chunkseq_test_chunks_extracted_total"])
	assert.Equal(t, 50.0, values["chunkseq_test_items_extracted_total"])
	assert.Equal(t, 7.0, values["chunkseq_test_chunks_processed_total"])
	assert.Equal(t, 1.0, values["chunkseq_test_runs_total"])
	assert.Zero(t, values["chunkseq_test_chunks_in_flight"])
}

func TestPrometheus_LabelsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitor.NewPrometheus("fail", reg)

	m.OnExtract(4, time.Millisecond)
	m.OnProcess(4, time.Millisecond, errors.New("boom"))
	m.OnExtract(4, time.Millisecond)
	m.OnDrop(1)
	m.OnFinish(errors.New("boom"))

	expected := `
		# HELP fail_runs_total Total number of finished traversals
		# TYPE fail_runs_total counter
		fail_runs_total{status="error"} 1
	`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fail_runs_total"))

	expected = `
		# HELP fail_chunks_in_flight Chunks extracted but not yet processed
		# TYPE fail_chunks_in_flight gauge
		fail_chunks_in_flight 0
		# HELP fail_chunks_dropped_total Total number of extracted chunks a failed traversal never processed
		# TYPE fail_chunks_dropped_total counter
		fail_chunks_dropped_total 1
	`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"fail_chunks_in_flight", "fail_chunks_dropped_total"))
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestPrometheus_FailedRunKeepsOtherRunsInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitor.NewPrometheus("shared", reg)
	boom := errors.New("boom")

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan error, 1)
	go func() {
		cur := chunks.New(chunks.FromSlice(items(4)), 4)
		done <- parallel.ForEachChunk(context.Background(), cur, func(context.Context, *chunks.Chunk[int]) error {
			close(started)
			<-release
			return nil
		}, parallel.WithMonitor(m), parallel.WithEngine(parallel.EngineSerial))
	}()
	<-started

	cur := chunks.New(chunks.FromSlice(items(64)), 4)
	err := parallel.ForEachChunk(context.Background(), cur, func(context.Context, *chunks.Chunk[int]) error {
		return boom
	}, parallel.WithMonitor(m), parallel.WithEngine(parallel.EngineQueue),
		parallel.WithWorkers(1), parallel.WithQueueDepth(4))
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1.0, gaugeValue(t, reg, "shared_chunks_in_flight"))

	close(release)
	require.NoError(t, <-done)
	assert.Zero(t, gaugeValue(t, reg, "shared_chunks_in_flight"))
}

func TestPrometheus_DuplicateNamespacePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	monitor.NewPrometheus("dup", reg)
	assert.Panics(t, func() { monitor.NewPrometheus("dup", reg) })
}

func TestZap_LogsLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	z := monitor.NewZap(zap.New(core))

	z.OnExtract(3, time.Millisecond)
	z.OnProcess(3, time.Millisecond, nil)
	z.OnProcess(2, time.Millisecond, errors.New("bad chunk"))
	z.OnDrop(5)
	z.OnFinish(errors.New("bad chunk"))

	entries := logs.All()
	require.Len(t, entries, 5)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "chunk extracted", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
	assert.EqualValues(t, 5, entries[3].ContextMap()["chunks"])
	assert.Equal(t, zapcore.ErrorLevel, entries[4].Level)
	assert.Equal(t, "chunkseq", entries[0].ContextMap()["component"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["size"])
}

func TestZap_NilLoggerIsSilent(t *testing.T) {
	z := monitor.NewZap(nil)
	assert.NotPanics(t, func() {
		z.OnExtract(1, 0)
		z.OnFinish(nil)
	})
}

type counting struct{ extracts, processes, drops, finishes int }

func (c *counting) OnExtract(int, time.Duration)        { c.extracts++ }
func (c *counting) OnProcess(int, time.Duration, error) { c.processes++ }
func (c *counting) OnDrop(n int)                        { c.drops += n }
func (c *counting) OnFinish(error)                      { c.finishes++ }

func TestMulti_FansOut(t *testing.T) {
	a, b := &counting{}, &counting{}
	m := monitor.Multi(a, nil, b)

	cur := chunks.New(chunks.FromSlice(items(10)), 3)
	err := parallel.ForEach(context.Background(), cur, func(int) {},
		parallel.WithMonitor(m), parallel.WithEngine(parallel.EngineSerial))
	require.NoError(t, err)

	for _, c := range []*counting{a, b} {
		assert.Equal(t, 4, c.extracts)
		assert.Equal(t, 4, c.processes)
		assert.Equal(t, 1, c.finishes)
		assert.Zero(t, c.drops)
	}
}

func TestMulti_ForwardsDrops(t *testing.T) {
	a, b := &counting{}, &counting{}
	monitor.Multi(a, b).OnDrop(3)
	assert.Equal(t, 3, a.drops)
	assert.Equal(t, 3, b.drops)
}

func TestMulti_Collapses(t *testing.T) {
	assert.Equal(t, parallel.NoopMonitor{}, monitor.Multi())
	a := &counting{}
	assert.Same(t, a, monitor.Multi(nil, a))
}
