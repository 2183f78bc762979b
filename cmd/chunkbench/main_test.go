package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"chunkseq/config"
	"chunkseq/parallel"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	body = strings.ReplaceAll(body, "$LOG", filepath.Join(dir, "bench.log"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_WritesReport(t *testing.T) {
	path := writeConfig(t, `
run:
  workloads: [sum, double]
  engines: [group, serial]
  items: 200
  chunk_size: 16
  workers: 2
  repeat: 2
log:
  output_paths: [$LOG]
`)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", path}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1+2*2*2)
	assert.True(t, strings.HasPrefix(lines[0], "WORKLOAD"))
	assert.Contains(t, out.String(), "serial")
	assert.Contains(t, out.String(), "double")
}

func TestRun_PrintConfig(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-print-config"}, &out))
	assert.Contains(t, out.String(), "chunk_size: 16")
}

func TestRun_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "run:\n  chunk_size: 0\n")
	err := run(context.Background(), []string{"-config", path}, &bytes.Buffer{})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRun_BadFlag(t *testing.T) {
	err := run(context.Background(), []string{"-no-such-flag"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestBench_RecordsMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Workloads = []string{"channel"}
	cfg.Run.Engines = []string{"queue"}
	cfg.Run.Items = 100
	cfg.Run.ChunkSize = 10
	cfg.Run.Workers = 3

	reg := prometheus.NewRegistry()
	b := &bench{cfg: cfg, logger: zap.NewNop(), tracer: noop.NewTracerProvider().Tracer("test"), metrics: reg}

	results, err := b.runAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, parallel.EngineQueue, results[0].Engine)
	assert.Equal(t, 3, results[0].Workers)
	assert.EqualValues(t, 10, results[0].Chunks)

	n, err := testutil.GatherAndCount(reg, "chunkbench_chunks_extracted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
