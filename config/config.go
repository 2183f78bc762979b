// Package config loads chunkbench settings.
//
// Priority: defaults, then the config file (YAML, TOML or JSON, picked by
// extension), then CHUNKBENCH_* environment variables. Nested keys use an
// underscore in the environment, so run.chunk_size is
// CHUNKBENCH_RUN_CHUNK_SIZE.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"chunkseq/parallel"
	"chunkseq/workload"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHUNKBENCH"

// Config is the complete chunkbench configuration.
type Config struct {
	Run       RunConfig       `mapstructure:"run" yaml:"run"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// RunConfig selects what to measure.
type RunConfig struct {
	Workloads []string `mapstructure:"workloads" yaml:"workloads"`
	Engines   []string `mapstructure:"engines" yaml:"engines"`
	Items     int      `mapstructure:"items" yaml:"items"`
	ChunkSize int      `mapstructure:"chunk_size" yaml:"chunk_size"`
	// Workers of zero means GOMAXPROCS.
	Workers    int           `mapstructure:"workers" yaml:"workers"`
	QueueDepth int           `mapstructure:"queue_depth" yaml:"queue_depth"`
	Repeat     int           `mapstructure:"repeat" yaml:"repeat"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LogConfig mirrors the zap settings chunkbench exposes.
type LogConfig struct {
	// debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// json or console
	Format      string   `mapstructure:"format" yaml:"format"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the endpoint.
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Workloads: workload.Names(),
			Engines:   []string{parallel.EngineGroup.String(), parallel.EngineQueue.String(), parallel.EngineSerial.String()},
			Items:     1 << 14,
			ChunkSize: 16,
			Repeat:    1,
			Timeout:   time.Minute,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Namespace: "chunkbench",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "chunkbench",
			SampleRate:   1,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("run.workloads", d.Run.Workloads)
	v.SetDefault("run.engines", d.Run.Engines)
	v.SetDefault("run.items", d.Run.Items)
	v.SetDefault("run.chunk_size", d.Run.ChunkSize)
	v.SetDefault("run.workers", d.Run.Workers)
	v.SetDefault("run.queue_depth", d.Run.QueueDepth)
	v.SetDefault("run.repeat", d.Run.Repeat)
	v.SetDefault("run.timeout", d.Run.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
}

// Load reads path (optional) and the environment on top of the defaults,
// then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate fails fast on settings a run cannot start with.
func (c *Config) Validate() error {
	var errs []string

	if c.Run.ChunkSize <= 0 {
		errs = append(errs, "run.chunk_size must be positive")
	}
	if c.Run.Items < 0 {
		errs = append(errs, "run.items must not be negative")
	}
	if c.Run.Workers < 0 {
		errs = append(errs, "run.workers must not be negative")
	}
	if c.Run.Repeat <= 0 {
		errs = append(errs, "run.repeat must be positive")
	}
	if len(c.Run.Workloads) == 0 {
		errs = append(errs, "run.workloads must not be empty")
	}
	for _, w := range c.Run.Workloads {
		if !slices.Contains(workload.Names(), w) {
			errs = append(errs, fmt.Sprintf("unknown workload %q", w))
		}
	}
	if len(c.Run.Engines) == 0 {
		errs = append(errs, "run.engines must not be empty")
	}
	for _, e := range c.Run.Engines {
		if _, ok := parallel.ParseEngineKind(e); !ok {
			errs = append(errs, fmt.Sprintf("unknown engine %q", e))
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// EngineKinds returns the parsed engines. Call it on a validated config.
func (c *Config) EngineKinds() []parallel.EngineKind {
	kinds := make([]parallel.EngineKind, 0, len(c.Run.Engines))
	for _, e := range c.Run.Engines {
		if k, ok := parallel.ParseEngineKind(e); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return out, nil
}
