package flowgraph

import "slices"

// CompiledGraph is an immutable, executable graph created by
// Graph.Compile. It is safe for concurrent Run calls.
type CompiledGraph[K ~string, S Mergeable[S]] struct {
	order        []K
	nodes        map[K]NodeFunc[S]
	next         map[K]K
	routers      map[K]conditionalEdge[K, S]
	predecessors map[K][]K
	entryPoint   K
	fallback     FallbackFunc[K, S]
}

// Edge describes one statically known transition.
type Edge[K ~string] struct {
	From K
	To   K
	// Conditional is true when the edge is a declared router target.
	Conditional bool
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[K, S]) EntryPoint() K {
	return cg.entryPoint
}

// NodeIDs returns all node identifiers in registration order.
func (cg *CompiledGraph[K, S]) NodeIDs() []K {
	return slices.Clone(cg.order)
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[K, S]) HasNode(id K) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns the simple-edge successor of id, or nil for END,
// unknown nodes and nodes routed conditionally.
func (cg *CompiledGraph[K, S]) Successors(id K) []K {
	if next, ok := cg.next[id]; ok {
		return []K{next}
	}
	return nil
}

// Targets returns the declared targets of a conditional edge.
func (cg *CompiledGraph[K, S]) Targets(id K) []K {
	if ce, ok := cg.routers[id]; ok {
		return slices.Clone(ce.targets)
	}
	return nil
}

// Predecessors returns the nodes with an edge (simple or declared
// conditional) into id.
func (cg *CompiledGraph[K, S]) Predecessors(id K) []K {
	return slices.Clone(cg.predecessors[id])
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[K, S]) IsConditional(id K) bool {
	_, ok := cg.routers[id]
	return ok
}

// Edges lists every transition in node registration order.
func (cg *CompiledGraph[K, S]) Edges() []Edge[K] {
	var edges []Edge[K]
	for _, from := range cg.order {
		if to, ok := cg.next[from]; ok {
			edges = append(edges, Edge[K]{From: from, To: to})
		}
		if ce, ok := cg.routers[from]; ok {
			for _, to := range ce.targets {
				edges = append(edges, Edge[K]{From: from, To: to, Conditional: true})
			}
		}
	}
	return edges
}
