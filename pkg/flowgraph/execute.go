package flowgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/randalmurphal/toolgraph/pkg/flowgraph/journal"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/observability"
	"go.opentelemetry.io/otel/attribute"
)

// Run executes the graph from its entry point with the given initial state.
//
// Exactly one node runs at a time. After each node the returned partial
// update is merged into the accumulated state, then the next node is
// chosen from the node's edge. Node failures are handed to the fallback
// policy when one is installed and execution continues; otherwise they
// abort the run. Router violations, cancellation and the iteration limit
// always abort.
//
// On error the returned state is the state at the point of failure.
func (cg *CompiledGraph[K, S]) Run(ctx Context, state S, opts ...RunOption) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.runID == "" {
		cfg.runID = ctx.RunID()
	}
	if cfg.runID != ctx.RunID() {
		ctx = NewContext(ctx, WithLogger(ctx.Logger()), WithContextRunID(cfg.runID))
	}

	done := observability.TimedOperation()
	start := time.Now()
	observability.LogRunStart(cfg.logger, cfg.runID, string(cg.entryPoint))

	var tracingCtx context.Context = ctx
	if cfg.tracingEnabled {
		spanCtx, runSpan := cfg.spans.StartRunSpan(ctx, cfg.graphName, cfg.runID)
		tracingCtx = spanCtx
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	var stats runStats
	result, stats, runErr = cg.loop(tracingCtx, ctx, state, &cfg)

	cfg.metrics.RecordGraphRun(ctx, runErr == nil, time.Since(start))
	if runErr != nil {
		observability.LogRunError(cfg.logger, cfg.runID, runErr, done(), lastNodeOf(runErr))
	} else {
		observability.LogRunComplete(cfg.logger, cfg.runID, done(), stats.executed, stats.degraded)
	}

	return result, runErr
}

type runStats struct {
	executed int
	degraded int
	seq      int
}

func lastNodeOf(err error) string {
	var (
		nodeErr   *NodeError
		panicErr  *PanicError
		routerErr *RouterError
		maxErr    *MaxIterationsError
		cancelErr *CancellationError
	)
	switch {
	case errors.As(err, &nodeErr):
		return nodeErr.NodeID
	case errors.As(err, &panicErr):
		return panicErr.NodeID
	case errors.As(err, &routerErr):
		return routerErr.FromNode
	case errors.As(err, &maxErr):
		return maxErr.LastNodeID
	case errors.As(err, &cancelErr):
		return cancelErr.NodeID
	}
	return ""
}

// loop drives the node-by-node execution. tracingCtx carries span context;
// fgCtx is the run's flowgraph Context.
func (cg *CompiledGraph[K, S]) loop(tracingCtx context.Context, fgCtx Context, state S, cfg *runConfig) (S, runStats, error) {
	var stats runStats
	current := cg.entryPoint

	for iterations := 1; current != END; iterations++ {
		if iterations > cfg.maxIterations {
			return state, stats, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: string(current),
				State:      state,
			}
		}

		if err := fgCtx.Err(); err != nil {
			return state, stats, &CancellationError{
				NodeID: string(current),
				State:  state,
				Cause:  err,
			}
		}

		nodeID := string(current)
		observability.LogNodeStart(cfg.logger, nodeID)

		nodeTracingCtx, nodeSpan := cfg.spans.StartNodeSpan(tracingCtx, nodeID)
		nodeCtx := withNode(nodeTracingCtx, fgCtx, nodeID)

		nodeStart := time.Now()
		update, nodeErr := cg.executeNode(nodeCtx, current, state)
		state = state.Merge(update)
		duration := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeTracingCtx, nodeID, duration, nodeErr)
		cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		stats.executed++

		degraded := false
		if nodeErr != nil {
			if cg.fallback == nil {
				observability.LogNodeError(cfg.logger, nodeID, nodeErr)
				cg.record(nodeCtx, cfg, &stats, current, "", duration, false, nodeErr, state)
				return state, stats, nodeErr
			}
			state = state.Merge(cg.fallback(nodeCtx, current, state, nodeErr))
			degraded = true
			stats.degraded++
			cfg.metrics.RecordNodeDegraded(nodeTracingCtx, nodeID)
			observability.LogNodeDegraded(cfg.logger, nodeID, nodeErr, float64(duration.Milliseconds()))
		} else {
			observability.LogNodeComplete(cfg.logger, nodeID, float64(duration.Milliseconds()))
		}

		next, err := cg.nextNode(nodeCtx, state, current)
		cg.record(nodeCtx, cfg, &stats, current, next, duration, degraded, nodeErr, state)
		if err != nil {
			return state, stats, err
		}
		if cg.IsConditional(current) {
			observability.LogRouted(cfg.logger, nodeID, string(next))
			cfg.spans.AddSpanEvent(tracingCtx, "flowgraph.route",
				attribute.String("from", nodeID),
				attribute.String("to", string(next)),
			)
		}

		current = next
	}

	return state, stats, nil
}

// record appends a journal entry for a step. Journal failures are logged
// and never abort the run.
func (cg *CompiledGraph[K, S]) record(ctx Context, cfg *runConfig, stats *runStats, node, next K, d time.Duration, degraded bool, nodeErr error, state S) {
	if cfg.journal == nil {
		return
	}

	payload, err := json.Marshal(state)
	if err != nil {
		observability.LogJournalError(cfg.logger, string(node), fmt.Errorf("serialize state: %w", err))
		return
	}

	stats.seq++
	entry := journal.NewEntry(cfg.runID, stats.seq, string(node), payload)
	entry.NextNode = string(next)
	entry.Duration = d
	entry.Degraded = degraded
	if nodeErr != nil {
		entry.Error = nodeErr.Error()
	}

	if err := cfg.journal.Append(ctx, entry); err != nil {
		observability.LogJournalError(cfg.logger, string(node), err)
		return
	}
	cfg.metrics.RecordJournalEntry(ctx, string(node), int64(entry.Size()))
}

// executeNode runs a single node with panic recovery. A recovered panic
// yields an empty update.
func (cg *CompiledGraph[K, S]) executeNode(ctx Context, id K, state S) (update S, err error) {
	fn, exists := cg.nodes[id]
	if !exists {
		return update, &NodeError{
			NodeID: string(id),
			Op:     "lookup",
			Err:    fmt.Errorf("node not found: %s", id),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			var zero S
			update = zero
			err = &PanicError{
				NodeID: string(id),
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	update, err = fn(ctx, state)
	if err != nil {
		return update, &NodeError{
			NodeID: string(id),
			Op:     "execute",
			Err:    err,
		}
	}
	return update, nil
}

// callRouter invokes router, converting a panic into ErrRouterPanic.
func callRouter[K ~string, S any](ctx Context, router RouterFunc[K, S], state S) (next K, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = ""
			err = fmt.Errorf("%w: %v", ErrRouterPanic, r)
		}
	}()
	return router(ctx, state), nil
}

// nextNode determines the successor of current.
func (cg *CompiledGraph[K, S]) nextNode(ctx Context, state S, current K) (K, error) {
	if ce, ok := cg.routers[current]; ok {
		next, err := callRouter(ctx, ce.router, state)
		if err != nil {
			return next, &RouterError{
				FromNode: string(current),
				Returned: string(next),
				Err:      err,
			}
		}
		if next == "" {
			return next, &RouterError{
				FromNode: string(current),
				Returned: string(next),
				Err:      ErrInvalidRouterResult,
			}
		}
		if !slices.Contains(ce.targets, next) {
			return next, &RouterError{
				FromNode: string(current),
				Returned: string(next),
				Err:      ErrRouterTargetNotDeclared,
			}
		}
		return next, nil
	}

	next, ok := cg.next[current]
	if !ok {
		return "", &NodeError{
			NodeID: string(current),
			Op:     "routing",
			Err:    fmt.Errorf("%w: %s", ErrMissingEdge, current),
		}
	}
	return next, nil
}
