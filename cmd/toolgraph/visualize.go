package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/randalmurphal/toolgraph/pkg/agent"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/render"
)

// workflowName is the base name of the visualization files.
const workflowName = "agent_workflow"

// runVisualize prints the graph structure and writes DOT and Mermaid
// files to dir, plus a PNG when Graphviz is installed.
func runVisualize(ctx context.Context, p *printer, dir string) error {
	g, err := agent.BuildGraph(agent.NewNodes(nil, nil, nil, 0))
	if err != nil {
		return err
	}

	p.heading("Agent graph")
	p.line("%s", render.Text[agent.Step](g))

	dot := render.DOT[agent.Step](g, workflowName)
	files := map[string]string{
		workflowName + ".dot": dot,
		workflowName + ".mmd": render.Mermaid[agent.Step](g, nil),
	}
	for _, name := range []string{workflowName + ".dot", workflowName + ".mmd"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		p.line("wrote %s", path)
	}

	png := filepath.Join(dir, workflowName+".png")
	switch err := render.PNG(ctx, dot, png); {
	case errors.Is(err, render.ErrGraphvizNotFound):
		p.warn("Graphviz not installed; skipped " + png)
	case err != nil:
		return err
	default:
		p.line("wrote %s", png)
	}
	return nil
}
