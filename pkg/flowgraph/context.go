package flowgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context extends context.Context with the run's logger and identifiers.
//
// Context is immutable. The executor derives a per-node Context with the
// node ID set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the logger enriched with run and node fields.
	// Never nil.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this execution run.
	RunID() string

	// NodeID returns the node being executed, or "" outside a node.
	NodeID() string
}

type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	nodeID string
}

func (c *executionContext) Logger() *slog.Logger { return c.logger }
func (c *executionContext) RunID() string        { return c.runID }
func (c *executionContext) NodeID() string       { return c.nodeID }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier. A UUID is generated otherwise.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewContext wraps ctx with flowgraph metadata.
//
//	ctx := flowgraph.NewContext(context.Background(),
//	    flowgraph.WithLogger(logger),
//	    flowgraph.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// withNode derives a node-scoped context. parent carries the span context
// used for tracing; base supplies logger and run ID.
func withNode(parent context.Context, base Context, nodeID string) Context {
	return &executionContext{
		Context: parent,
		logger:  base.Logger().With("run_id", base.RunID(), "node_id", nodeID),
		runID:   base.RunID(),
		nodeID:  nodeID,
	}
}
