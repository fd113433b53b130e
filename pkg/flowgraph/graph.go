package flowgraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for execution graphs.
//
// Graph is NOT thread-safe during building. Construct it from a single
// goroutine, then call Compile() to obtain an immutable CompiledGraph that
// can be shared.
//
// Example:
//
//	graph := flowgraph.NewGraph[Step, State]().
//	    AddNode(StepAnalyze, analyze).
//	    AddNode(StepChoose, choose).
//	    AddEdge(StepAnalyze, StepChoose).
//	    AddConditionalEdge(StepChoose, route, StepWeather, StepDirect).
//	    SetEntry(StepAnalyze)
//
//	compiled, err := graph.Compile()
type Graph[K ~string, S Mergeable[S]] struct {
	mu               sync.RWMutex
	order            []K
	nodes            map[K]NodeFunc[S]
	edges            map[K][]K
	conditionalEdges map[K]conditionalEdge[K, S]
	entryPoint       K
	fallback         FallbackFunc[K, S]
}

type conditionalEdge[K ~string, S any] struct {
	router  RouterFunc[K, S]
	targets []K
}

// NewGraph creates a new graph builder keyed by K over state S.
func NewGraph[K ~string, S Mergeable[S]]() *Graph[K, S] {
	return &Graph[K, S]{
		nodes:            make(map[K]NodeFunc[S]),
		edges:            make(map[K][]K),
		conditionalEdges: make(map[K]conditionalEdge[K, S]),
	}
}

// AddNode registers a node. Registration order is preserved for
// introspection and rendering.
//
// Panics if:
//   - id is empty
//   - id is the reserved word "END" or "__end__" (case-insensitive)
//   - id contains whitespace
//   - fn is nil
//   - id already exists in the graph
func (g *Graph[K, S]) AddNode(id K, fn NodeFunc[S]) *Graph[K, S] {
	if id == "" {
		panic("flowgraph: node ID cannot be empty")
	}

	lower := strings.ToLower(string(id))
	if lower == "end" || lower == END {
		panic("flowgraph: node ID cannot be reserved word 'END'")
	}

	if strings.ContainsAny(string(id), " \t\n\r") {
		panic("flowgraph: node ID cannot contain whitespace")
	}

	if fn == nil {
		panic("flowgraph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("flowgraph: duplicate node ID: %s", id))
	}

	g.nodes[id] = fn
	g.order = append(g.order, id)
	return g
}

// AddEdge adds an unconditional edge. The target can be a node ID or END.
// Edge validation happens at Compile() time, so edges may be added in any
// order.
func (g *Graph[K, S]) AddEdge(from, to K) *Graph[K, S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge routes from a node through router. targets lists
// every value the router may return; Compile checks that each exists and
// Run rejects anything outside the list.
//
// Panics if router is nil.
func (g *Graph[K, S]) AddConditionalEdge(from K, router RouterFunc[K, S], targets ...K) *Graph[K, S] {
	if router == nil {
		panic("flowgraph: router function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.conditionalEdges[from] = conditionalEdge[K, S]{
		router:  router,
		targets: append([]K(nil), targets...),
	}
	return g
}

// SetEntry designates the entry point node.
func (g *Graph[K, S]) SetEntry(id K) *Graph[K, S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}

// SetFallback installs the policy applied when a node returns an error or
// panics. Without a fallback, node failures abort the run.
func (g *Graph[K, S]) SetFallback(fn FallbackFunc[K, S]) *Graph[K, S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.fallback = fn
	return g
}
