package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/toolgraph/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

// Apology is the answer given when a step fails.
func Apology(reason string) string {
	return fmt.Sprintf("I'm sorry, I ran into a problem and could not complete your request (%s). Please try again.", reason)
}

// Fallback degrades a failed step into an apology so the run can finish.
func Fallback(ctx flowgraph.Context, node Step, _ State, err error) State {
	cause := err
	var nodeErr *flowgraph.NodeError
	if errors.As(err, &nodeErr) {
		cause = nodeErr.Err
	}

	ctx.Logger().Error("step failed",
		slog.String("step", string(node)),
		slog.String("category", fgerrors.Categorize(cause).String()),
		slog.String("error", cause.Error()))

	return State{
		Error:        Some(true),
		ErrorMessage: Some(fmt.Sprintf("%s: %v", node, cause)),
		Answer:       Some(Apology(reason(cause))),
	}
}

// reason is a short user-facing description of err.
func reason(err error) string {
	var (
		toolErr    *fgerrors.ToolExecutionError
		valErr     *fgerrors.ValidationError
		modelErr   *fgerrors.ModelResponseError
		timeoutErr *fgerrors.TimeoutError
		panicErr   *flowgraph.PanicError
	)
	switch {
	case errors.As(err, &toolErr):
		return fmt.Sprintf("the %s tool failed", toolErr.Tool)
	case errors.As(err, &valErr):
		return "invalid input: " + valErr.Message
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return "a service took too long to respond"
	case errors.As(err, &modelErr):
		return "the language model returned no usable answer"
	case errors.As(err, &panicErr):
		return "internal error"
	default:
		return "unexpected error"
	}
}
