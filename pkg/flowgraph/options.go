package flowgraph

import (
	"log/slog"

	"github.com/randalmurphal/toolgraph/pkg/flowgraph/journal"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/observability"
)

type runConfig struct {
	maxIterations  int
	runID          string
	graphName      string
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	journal        journal.Store
}

func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 1000,
		graphName:     "flowgraph",
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of node executions.
// Default: 1000. Non-positive values are ignored.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithRunID overrides the run ID taken from the Context.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithGraphName labels the run span.
func WithGraphName(name string) RunOption {
	return func(c *runConfig) {
		if name != "" {
			c.graphName = name
		}
	}
}

// WithObservabilityLogger enables run and node lifecycle logging.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for the run.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder uses a specific recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry spans for the run and each node.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithJournal appends one entry per executed node to store.
func WithJournal(store journal.Store) RunOption {
	return func(c *runConfig) {
		c.journal = store
	}
}
