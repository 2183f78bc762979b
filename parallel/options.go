package parallel

import (
	"runtime"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// EngineKind selects one of the built-in engines.
type EngineKind int

const (
	EngineGroup EngineKind = iota
	EngineQueue
	EngineSerial
)

func (k EngineKind) String() string {
	switch k {
	case EngineGroup:
		return "group"
	case EngineQueue:
		return "queue"
	case EngineSerial:
		return "serial"
	default:
		return "unknown"
	}
}

// ParseEngineKind maps "group", "queue" or "serial" to an EngineKind.
func ParseEngineKind(s string) (EngineKind, bool) {
	for _, k := range []EngineKind{EngineGroup, EngineQueue, EngineSerial} {
		if k.String() == s {
			return k, true
		}
	}
	return EngineGroup, false
}

const (
	defaultQueueDepthPerWorker = 2
	tracerName                 = "chunkseq/parallel"
)

type config struct {
	workers    int
	engine     EngineKind
	queueDepth int
	monitor    Monitor
	tracer     trace.Tracer
}

// Option configures a Bridge.
type Option func(*config)

// WithWorkers sets how many chunks may be processed at once.
// Values below one fall back to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithEngine picks the built-in engine. The default is EngineGroup.
func WithEngine(kind EngineKind) Option {
	return func(c *config) {
		c.engine = kind
	}
}

// WithQueueDepth bounds how many extracted chunks EngineQueue buffers ahead
// of the workers. The default is twice the worker count.
func WithQueueDepth(n int) Option {
	return func(c *config) {
		c.queueDepth = n
	}
}

// WithMonitor sets the monitor that observes extraction and processing.
func WithMonitor(m Monitor) Option {
	if m == nil {
		panic("chunkseq.WithMonitor: monitor cannot be nil")
	}
	return func(c *config) {
		c.monitor = m
	}
}

// WithTracer sets the tracer used for per-chunk spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

func newConfig(opts []Option) config {
	cfg := config{engine: EngineGroup}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.workers = workerCount(cfg.workers)
	if cfg.engine == EngineSerial {
		cfg.workers = 1
	}
	if cfg.queueDepth < 1 {
		cfg.queueDepth = cfg.workers * defaultQueueDepthPerWorker
	}
	if cfg.monitor == nil {
		cfg.monitor = NoopMonitor{}
	}
	if cfg.tracer == nil {
		cfg.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return cfg
}

func workerCount(n int) int {
	if n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// EffectiveWorkers reports how many workers opts resolve to.
func EffectiveWorkers(opts ...Option) int {
	return newConfig(opts).workers
}
