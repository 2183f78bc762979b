// Package monitor provides parallel.Monitor implementations that export
// chunk traversal events to Prometheus and zap.
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chunkseq/parallel"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Prometheus records chunk traversal metrics.
type Prometheus struct {
	chunksExtracted prometheus.Counter
	itemsExtracted  prometheus.Counter
	extractDuration prometheus.Histogram
	chunksProcessed *prometheus.CounterVec
	processDuration prometheus.Histogram
	chunksDropped   prometheus.Counter
	inFlight        prometheus.Gauge
	runs            *prometheus.CounterVec
}

var _ parallel.Monitor = (*Prometheus)(nil)

// NewPrometheus registers the chunk metrics under namespace on reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewPrometheus(namespace string, reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		chunksExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_extracted_total",
			Help:      "Total number of chunks taken from cursors",
		}),
		itemsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_extracted_total",
			Help:      "Total number of source items taken from cursors",
		}),
		extractDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extract_duration_seconds",
			Help:      "Time spent holding the cursor to fill one chunk",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		chunksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_processed_total",
			Help:      "Total number of chunks handed to work functions",
		}, []string{"status"}),
		processDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time a work function spent on one chunk",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}),
		chunksDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_dropped_total",
			Help:      "Total number of extracted chunks a failed traversal never processed",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_in_flight",
			Help:      "Chunks extracted but not yet processed",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of finished traversals",
		}, []string{"status"}),
	}
}

func (p *Prometheus) OnExtract(size int, elapsed time.Duration) {
	p.chunksExtracted.Inc()
	p.itemsExtracted.Add(float64(size))
	p.extractDuration.Observe(elapsed.Seconds())
	p.inFlight.Inc()
}

func (p *Prometheus) OnProcess(_ int, elapsed time.Duration, err error) {
	p.chunksProcessed.WithLabelValues(status(err)).Inc()
	p.processDuration.Observe(elapsed.Seconds())
	p.inFlight.Dec()
}

// OnDrop takes a failed run's leftover chunks off the in-flight gauge. Other
// traversals sharing the gauge keep their counts.
func (p *Prometheus) OnDrop(chunks int) {
	p.chunksDropped.Add(float64(chunks))
	p.inFlight.Sub(float64(chunks))
}

func (p *Prometheus) OnFinish(err error) {
	p.runs.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}
