package flowgraph

// END is the terminal node identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// Mergeable is implemented by state types that accept partial updates.
//
// Merge returns the receiver with every field that is set in update
// overwritten. Fields left unset in update keep their prior value, and the
// zero value of S must be an empty update.
type Mergeable[S any] interface {
	Merge(update S) S
}

// NodeFunc is the signature for all node functions.
//
// A node receives the accumulated state by value and returns a partial
// update holding only the fields it produces. The executor merges the
// update into the accumulated state. When a node fails it may still
// return a partial update carrying best-effort values; that update is
// merged before the failure is handed to the graph's fallback.
//
// Example:
//
//	func analyze(ctx flowgraph.Context, s State) (State, error) {
//	    return State{Thoughts: Some("...")}, nil
//	}
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc selects the next node for a conditional edge.
//
// It must return one of the targets declared with AddConditionalEdge.
// Any other value aborts the run with a *RouterError.
type RouterFunc[K ~string, S any] func(ctx Context, state S) K

// FallbackFunc converts a node failure into a state update so that the run
// can continue. err is a *NodeError or *PanicError.
type FallbackFunc[K ~string, S any] func(ctx Context, node K, state S, err error) S
