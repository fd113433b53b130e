// Package observability carries the structured logging, metrics and
// tracing hooks used by the flowgraph executor.
//
// Logging is plain slog. Metrics and tracing go through OpenTelemetry
// and fall back to no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run and node fields to a logger.
func EnrichLogger(logger *slog.Logger, runID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogRunStart logs the start of a graph run.
func LogRunStart(logger *slog.Logger, runID, entry string) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting",
		slog.String("run_id", runID),
		slog.String("entry", entry),
	)
}

// LogRunComplete logs successful graph run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, nodeCount, degraded int) {
	if logger == nil {
		return
	}
	logger.Info("graph run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
		slog.Int("nodes_degraded", degraded),
	)
}

// LogRunError logs a graph run that aborted.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting", slog.String("node_id", nodeID))
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs a node failure that aborts the run.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogNodeDegraded logs a node failure that the fallback policy absorbed.
// The run continues with the fallback's state update.
func LogNodeDegraded(logger *slog.Logger, nodeID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("node degraded",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRouted logs the target chosen by a conditional edge.
func LogRouted(logger *slog.Logger, from, to string) {
	if logger == nil {
		return
	}
	logger.Debug("route selected",
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogJournalError logs a journal write failure. Journal writes never
// fail a run.
func LogJournalError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal append failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation returns a func reporting the elapsed milliseconds since
// TimedOperation was called.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
