// Package render draws a compiled graph as plain text, Mermaid or
// Graphviz DOT.
package render

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/randalmurphal/toolgraph/pkg/flowgraph"
)

// ErrGraphvizNotFound is returned by PNG when the dot binary is missing.
var ErrGraphvizNotFound = errors.New("graphviz dot binary not found in PATH")

// Graph is the read-only view of a compiled graph the renderers need.
// *flowgraph.CompiledGraph satisfies it.
type Graph[K ~string] interface {
	EntryPoint() K
	NodeIDs() []K
	Edges() []flowgraph.Edge[K]
}

// Overlay highlights a run's path on the rendered graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// Text lists nodes and edges, one per line.
func Text[K ~string](g Graph[K]) string {
	var sb strings.Builder
	sb.WriteString("Nodes:\n")
	for _, id := range g.NodeIDs() {
		marker := ""
		if id == g.EntryPoint() {
			marker = " (entry)"
		}
		fmt.Fprintf(&sb, "  %s%s\n", id, marker)
	}
	sb.WriteString("Edges:\n")
	for _, e := range g.Edges() {
		arrow := "->"
		if e.Conditional {
			arrow = "-?->"
		}
		fmt.Fprintf(&sb, "  %s %s %s\n", e.From, arrow, endLabel(string(e.To)))
	}
	return sb.String()
}

// Mermaid produces flowchart syntax. The entry node is drawn as a circle;
// conditional edges are dotted.
func Mermaid[K ~string](g Graph[K], overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range g.NodeIDs() {
		opener, closer := "[", "]"
		if id == g.EntryPoint() {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeID(string(id)), opener, id, closer)
	}
	sb.WriteString("    __end__((\"END\"))\n")

	for _, e := range g.Edges() {
		arrow := "-->"
		if e.Conditional {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeID(string(e.From)), arrow, sanitizeID(string(e.To)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// DOT produces a Graphviz digraph named name.
func DOT[K ~string](g Graph[K], name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", quote(name))
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")

	for _, id := range g.NodeIDs() {
		attrs := ""
		if id == g.EntryPoint() {
			attrs = " [shape=ellipse, style=bold]"
		}
		fmt.Fprintf(&sb, "    %s%s;\n", quote(string(id)), attrs)
	}
	fmt.Fprintf(&sb, "    %s [label=\"END\", shape=doublecircle];\n", quote(flowgraph.END))

	for _, e := range g.Edges() {
		attrs := ""
		if e.Conditional {
			attrs = " [style=dashed]"
		}
		fmt.Fprintf(&sb, "    %s -> %s%s;\n", quote(string(e.From)), quote(string(e.To)), attrs)
	}

	sb.WriteString("}\n")
	return sb.String()
}

// PNG renders DOT source to an image file with the Graphviz dot binary.
func PNG(ctx context.Context, dot, path string) error {
	bin, err := exec.LookPath("dot")
	if err != nil {
		return ErrGraphvizNotFound
	}

	cmd := exec.CommandContext(ctx, bin, "-Tpng", "-o", path)
	cmd.Stdin = strings.NewReader(dot)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dot: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func endLabel(id string) string {
	if id == flowgraph.END {
		return "END"
	}
	return id
}

func sanitizeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
