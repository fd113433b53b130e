package flowgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Compile validates the graph and creates an executable CompiledGraph.
// All validation failures are joined into one error; no partially valid
// graph is ever returned.
//
// Validation checks:
//  1. Entry point must be set and reference an existing node
//  2. Edge sources and targets must reference existing nodes (or END)
//  3. Conditional edges must declare at least one existing target
//  4. A node has at most one outgoing edge kind, and at most one simple edge
//  5. Every node reachable from the entry has an outgoing edge
//  6. A path from the entry to END exists
//
// Unreachable nodes are logged as warnings but do not fail compilation.
func (g *Graph[K, S]) Compile() (*CompiledGraph[K, S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if !g.exists(g.entryPoint) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	for _, from := range g.sortedEdgeSources() {
		if !g.exists(from) {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, to := range g.edges[from] {
			if to != END && !g.exists(to) {
				errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
			}
		}
		if len(g.edges[from]) > 1 {
			errs = append(errs, fmt.Errorf("%w: node '%s' has %d simple edges", ErrAmbiguousEdges, from, len(g.edges[from])))
		}
		if _, ok := g.conditionalEdges[from]; ok {
			errs = append(errs, fmt.Errorf("%w: node '%s' has both simple and conditional edges", ErrAmbiguousEdges, from))
		}
	}

	for _, from := range g.sortedConditionalSources() {
		ce := g.conditionalEdges[from]
		if !g.exists(from) {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		if len(ce.targets) == 0 {
			errs = append(errs, fmt.Errorf("%w: from '%s'", ErrNoRouterTargets, from))
		}
		for _, to := range ce.targets {
			if to != END && !g.exists(to) {
				errs = append(errs, fmt.Errorf("%w: conditional target '%s' from '%s' does not exist", ErrNodeNotFound, to, from))
			}
		}
	}

	if g.entryPoint != "" && g.exists(g.entryPoint) {
		reachable := g.findReachableNodes()
		for _, id := range g.order {
			if !reachable[id] {
				slog.Warn("node is unreachable from entry", "node_id", string(id))
				continue
			}
			if len(g.edges[id]) == 0 {
				if _, ok := g.conditionalEdges[id]; !ok {
					errs = append(errs, fmt.Errorf("%w: node '%s'", ErrMissingEdge, id))
				}
			}
		}
		if !g.hasPathToEnd() {
			errs = append(errs, ErrNoPathToEnd)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

func (g *Graph[K, S]) exists(id K) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph[K, S]) sortedEdgeSources() []K {
	keys := make([]K, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (g *Graph[K, S]) sortedConditionalSources() []K {
	keys := make([]K, 0, len(g.conditionalEdges))
	for k := range g.conditionalEdges {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// successorsOf returns every statically possible successor of id,
// including declared conditional targets.
func (g *Graph[K, S]) successorsOf(id K) []K {
	out := append([]K(nil), g.edges[id]...)
	if ce, ok := g.conditionalEdges[id]; ok {
		out = append(out, ce.targets...)
	}
	return out
}

// hasPathToEnd checks if END is reachable from the entry point.
func (g *Graph[K, S]) hasPathToEnd() bool {
	canReachEnd := map[K]bool{END: true}

	for changed := true; changed; {
		changed = false
		for _, id := range g.order {
			if canReachEnd[id] {
				continue
			}
			for _, next := range g.successorsOf(id) {
				if canReachEnd[next] {
					canReachEnd[id] = true
					changed = true
					break
				}
			}
		}
	}

	return canReachEnd[g.entryPoint]
}

// findReachableNodes returns the set of nodes reachable from the entry point.
func (g *Graph[K, S]) findReachableNodes() map[K]bool {
	reachable := map[K]bool{g.entryPoint: true}
	queue := []K{g.entryPoint}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.successorsOf(current) {
			if next != END && !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	return reachable
}

// buildCompiledGraph copies the builder state into an immutable graph.
func (g *Graph[K, S]) buildCompiledGraph() *CompiledGraph[K, S] {
	cg := &CompiledGraph[K, S]{
		order:        slices.Clone(g.order),
		nodes:        make(map[K]NodeFunc[S], len(g.nodes)),
		next:         make(map[K]K, len(g.edges)),
		routers:      make(map[K]conditionalEdge[K, S], len(g.conditionalEdges)),
		predecessors: make(map[K][]K),
		entryPoint:   g.entryPoint,
		fallback:     g.fallback,
	}

	for id, fn := range g.nodes {
		cg.nodes[id] = fn
	}
	for from, targets := range g.edges {
		cg.next[from] = targets[0]
	}
	for from, ce := range g.conditionalEdges {
		cg.routers[from] = conditionalEdge[K, S]{router: ce.router, targets: slices.Clone(ce.targets)}
	}
	for _, from := range cg.order {
		for _, to := range g.successorsOf(from) {
			if to != END && !slices.Contains(cg.predecessors[to], from) {
				cg.predecessors[to] = append(cg.predecessors[to], from)
			}
		}
	}

	return cg
}
