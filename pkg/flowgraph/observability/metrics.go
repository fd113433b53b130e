package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records executor metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node execution with its duration and error status.
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordNodeDegraded records a node failure absorbed by the fallback policy.
	RecordNodeDegraded(ctx context.Context, nodeID string)

	// RecordGraphRun records a graph run completion.
	RecordGraphRun(ctx context.Context, success bool, duration time.Duration)

	// RecordJournalEntry records the size of an appended journal entry.
	RecordJournalEntry(ctx context.Context, nodeID string, sizeBytes int64)
}

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	nodeDegraded   metric.Int64Counter
	graphRuns      metric.Int64Counter
	graphLatency   metric.Float64Histogram
	journalSize    metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("flowgraph")
	m := &otelMetrics{}
	var err error

	if m.nodeExecutions, err = meter.Int64Counter("flowgraph.node.executions",
		metric.WithDescription("Number of node executions"),
	); err != nil {
		return nil, err
	}
	if m.nodeLatency, err = meter.Float64Histogram("flowgraph.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.nodeErrors, err = meter.Int64Counter("flowgraph.node.errors",
		metric.WithDescription("Number of node execution errors"),
	); err != nil {
		return nil, err
	}
	if m.nodeDegraded, err = meter.Int64Counter("flowgraph.node.degraded",
		metric.WithDescription("Number of node failures handled by the fallback policy"),
	); err != nil {
		return nil, err
	}
	if m.graphRuns, err = meter.Int64Counter("flowgraph.graph.runs",
		metric.WithDescription("Number of graph runs"),
	); err != nil {
		return nil, err
	}
	if m.graphLatency, err = meter.Float64Histogram("flowgraph.graph.latency_ms",
		metric.WithDescription("Graph run latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.journalSize, err = meter.Int64Histogram("flowgraph.journal.size_bytes",
		metric.WithDescription("Journal entry size in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. Set the provider with otel.SetMeterProvider before the
// first call. Initialization failures yield a no-op recorder.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_id", nodeID))

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordNodeDegraded(ctx context.Context, nodeID string) {
	m.nodeDegraded.Add(ctx, 1, metric.WithAttributes(attribute.String("node_id", nodeID)))
}

func (m *otelMetrics) RecordGraphRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.graphRuns.Add(ctx, 1, attrs)
	m.graphLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelMetrics) RecordJournalEntry(ctx context.Context, nodeID string, sizeBytes int64) {
	m.journalSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("node_id", nodeID)))
}
