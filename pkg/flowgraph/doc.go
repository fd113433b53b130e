/*
Package flowgraph executes small directed graphs of steps over a shared,
mergeable state.

# Overview

A graph is built from named nodes and edges, validated once by Compile,
and then run any number of times. Nodes are keyed by a string type K of
the caller's choosing, so node IDs and router results are type-checked.

Each node returns a partial update rather than a full state. The executor
merges the update into the accumulated state with last-write-wins per
field, so a node can never erase a value another node produced.

# Basic Usage

	type Step string

	type State struct {
	    Input  Opt[string]
	    Output Opt[string]
	}

	func (s State) Merge(u State) State { ... }

	func process(ctx flowgraph.Context, s State) (State, error) {
	    return State{Output: Some("processed: " + s.Input.Or(""))}, nil
	}

	compiled, err := flowgraph.NewGraph[Step, State]().
	    AddNode("process", process).
	    AddEdge("process", flowgraph.END).
	    SetEntry("process").
	    Compile()

	result, err := compiled.Run(flowgraph.NewContext(ctx), State{Input: Some("hello")})

# Conditional Branching

A conditional edge names every node its router may return:

	graph.AddConditionalEdge("choose", route, "weather", "calculator", "direct")

Compile checks each declared target exists. At run time a router result
outside the declared set aborts with a *RouterError wrapping
ErrRouterTargetNotDeclared.

# Failure Handling

SetFallback installs a single policy that turns node errors and panics
into a state update. The update is merged and the run continues along the
failed node's edge, so routers can branch on the degraded state. Without
a fallback the first node failure aborts the run with a *NodeError or
*PanicError.

# Observability

Run options enable slog lifecycle logging (WithObservabilityLogger),
OpenTelemetry metrics (WithMetrics) and spans (WithTracing), and a
diagnostic step journal (WithJournal).
*/
package flowgraph
