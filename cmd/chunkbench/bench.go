package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"chunkseq/config"
	"chunkseq/monitor"
	"chunkseq/parallel"
	"chunkseq/workload"
)

// errChecksum reports a parallel run that disagrees with its baseline.
var errChecksum = errors.New("checksum mismatch")

type result struct {
	workload.Report
	Engine  parallel.EngineKind
	Workers int
}

type bench struct {
	cfg     *config.Config
	logger  *zap.Logger
	tracer  trace.Tracer
	metrics prometheus.Registerer
}

func (b *bench) runAll(ctx context.Context) ([]result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Run.Timeout)
	defer cancel()

	prom := monitor.NewPrometheus(b.cfg.Metrics.Namespace, b.metrics)
	mon := monitor.Multi(prom, monitor.NewZap(b.logger))

	var results []result
	for _, name := range b.cfg.Run.Workloads {
		want, err := workload.Baseline(name, b.cfg.Run.Items)
		if err != nil {
			return results, err
		}
		for _, engine := range b.cfg.EngineKinds() {
			opts := []parallel.Option{
				parallel.WithEngine(engine),
				parallel.WithWorkers(b.cfg.Run.Workers),
				parallel.WithQueueDepth(b.cfg.Run.QueueDepth),
				parallel.WithMonitor(mon),
				parallel.WithTracer(b.tracer),
			}
			workers := parallel.EffectiveWorkers(opts...)
			for range b.cfg.Run.Repeat {
				report, err := workload.Run(ctx, name, workload.Params{
					Items:     b.cfg.Run.Items,
					ChunkSize: b.cfg.Run.ChunkSize,
					Options:   opts,
				})
				if err != nil {
					return results, err
				}
				logger := b.logger.With(
					zap.String("run_id", report.RunID.String()),
					zap.String("workload", name),
					zap.Stringer("engine", engine),
				)
				if report.Checksum != want {
					logger.Error("checksum mismatch", zap.Uint64("got", report.Checksum), zap.Uint64("want", want))
					return results, fmt.Errorf("%w: %s on %s: got %d, want %d", errChecksum, name, engine, report.Checksum, want)
				}
				logger.Info("run finished",
					zap.Uint64("chunks", report.Chunks),
					zap.Duration("elapsed", report.Elapsed),
				)
				results = append(results, result{Report: report, Engine: engine, Workers: workers})
			}
		}
	}
	return results, nil
}

func writeReports(w io.Writer, results []result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKLOAD\tENGINE\tWORKERS\tITEMS\tCHUNK\tCHUNKS\tELAPSED\tCHECKSUM")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%d\n",
			r.Workload, r.Engine, r.Workers, r.Items, r.ChunkSize, r.Chunks, r.Elapsed, r.Checksum)
	}
	_ = tw.Flush()
}
