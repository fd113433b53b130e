package agent

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/randalmurphal/toolgraph/pkg/agent/tools"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/llm"
)

// NoQuestionThoughts is what analyze records when there is no question.
const NoQuestionThoughts = "No question was provided; there is nothing to analyze."

// DirectAnswerObservation marks answers given without a tool.
const DirectAnswerObservation = "Direct answer"

// Nodes holds the dependencies of the reasoning steps.
type Nodes struct {
	model       llm.Client
	weather     tools.Tool
	calculator  tools.Tool
	temperature float64
}

// NewNodes creates the reasoning steps.
func NewNodes(model llm.Client, weather, calculator tools.Tool, temperature float64) *Nodes {
	return &Nodes{
		model:       model,
		weather:     weather,
		calculator:  calculator,
		temperature: temperature,
	}
}

// complete renders p and returns the trimmed model output.
func (n *Nodes) complete(ctx flowgraph.Context, p *llm.Prompt, vars map[string]any) (string, error) {
	req, err := p.Request(ctx, vars)
	if err != nil {
		return "", err
	}
	req.Temperature = n.temperature

	resp, err := n.model.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", &fgerrors.ModelResponseError{Model: resp.Model, Message: "empty content for " + p.Name()}
	}

	ctx.Logger().Debug("model completion",
		slog.String("prompt", p.Name()),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
		slog.Int64("duration_ms", resp.Duration.Milliseconds()))
	return content, nil
}

// Analyze records the model's thoughts about the question.
func (n *Nodes) Analyze(ctx flowgraph.Context, s State) (State, error) {
	question := strings.TrimSpace(s.Question.Or(""))
	if question == "" {
		return State{Thoughts: Some(NoQuestionThoughts)}, nil
	}

	thoughts, err := n.complete(ctx, analyzePrompt, map[string]any{"question": question})
	if err != nil {
		return State{}, err
	}
	return State{Thoughts: Some(thoughts)}, nil
}

// ChooseTool picks a tool and extracts its argument.
func (n *Nodes) ChooseTool(ctx flowgraph.Context, s State) (State, error) {
	question := s.Question.Or("")
	names := make([]string, len(ToolNames))
	for i, t := range ToolNames {
		names[i] = string(t)
	}

	raw, err := n.complete(ctx, choosePrompt, map[string]any{
		"question": question,
		"thoughts": s.Thoughts.Or(""),
		"tools":    strings.Join(names, ", "),
	})
	if err != nil {
		return State{}, err
	}

	tool := ParseToolName(raw)
	if string(tool) != strings.TrimSpace(raw) {
		ctx.Logger().Debug("tool choice normalized", slog.String("raw", raw), slog.String("tool", string(tool)))
	}

	var extract *llm.Prompt
	switch tool {
	case ToolWeather:
		extract = extractCityPrompt
	case ToolCalculator:
		extract = extractExpressionPrompt
	case ToolDirectAnswer:
		return State{ToolName: Some(tool), ToolInput: Some("")}, nil
	}

	input, err := n.complete(ctx, extract, map[string]any{"question": question})
	if err != nil {
		return State{ToolName: Some(tool)}, err
	}
	return State{ToolName: Some(tool), ToolInput: Some(cleanExtraction(input))}, nil
}

// cleanExtraction strips the decoration models like to add around a bare
// value.
func cleanExtraction(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "`\"'* ")
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSuffix(s, "?")
	return strings.TrimSpace(s)
}

// InvokeWeather runs the weather tool on tool_input.
func (n *Nodes) InvokeWeather(ctx flowgraph.Context, s State) (State, error) {
	return n.invoke(ctx, n.weather, s.ToolInput.Or(""))
}

// InvokeCalculator runs the calculator on tool_input.
func (n *Nodes) InvokeCalculator(ctx flowgraph.Context, s State) (State, error) {
	return n.invoke(ctx, n.calculator, s.ToolInput.Or(""))
}

// invoke returns the tool's output as the observation. On failure the
// observation carries the tool's fallback text.
func (n *Nodes) invoke(ctx flowgraph.Context, tool tools.Tool, input string) (State, error) {
	out, err := tools.Invoke(ctx, ctx.Logger(), tool, input)
	if err == nil {
		return State{Observation: Some(out)}, nil
	}

	var (
		toolErr *fgerrors.ToolExecutionError
		valErr  *fgerrors.ValidationError
	)
	switch {
	case errors.As(err, &toolErr):
		return State{Observation: Some(toolErr.Fallback)}, err
	case errors.As(err, &valErr):
		return State{Observation: Some("The " + tool.Name() + " tool rejected its input: " + valErr.Message)}, err
	}
	return State{Observation: Some(tool.Fallback())}, err
}

// DirectAnswer answers from the model alone.
func (n *Nodes) DirectAnswer(ctx flowgraph.Context, s State) (State, error) {
	answer, err := n.complete(ctx, directPrompt, map[string]any{
		"question": s.Question.Or(""),
		"thoughts": s.Thoughts.Or(""),
	})
	if err != nil {
		return State{Observation: Some(DirectAnswerObservation)}, err
	}
	return State{Observation: Some(DirectAnswerObservation), Answer: Some(answer)}, nil
}

// ComposeAnswer writes the final answer from the tool observation.
func (n *Nodes) ComposeAnswer(ctx flowgraph.Context, s State) (State, error) {
	answer, err := n.complete(ctx, composePrompt, map[string]any{
		"question":    s.Question.Or(""),
		"thoughts":    s.Thoughts.Or(""),
		"observation": s.Observation.Or(""),
	})
	if err != nil {
		return State{}, err
	}
	return State{Answer: Some(answer)}, nil
}
