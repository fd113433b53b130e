// Package tools holds the capabilities the agent can call: a weather
// lookup backed by Open-Meteo and a restricted arithmetic calculator.
//
// Adapters return their result as text. Lookups that legitimately find
// nothing ("City not found: ...") and arithmetic faults ("Error: division
// by zero") are results, not errors. Transport failures are errors of the
// kinds defined in the flowgraph errors package, and Invoke wraps them
// into a *errors.ToolExecutionError carrying a fallback message.
package tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

// Tool names as reported in errors and logs.
const (
	NameWeather    = "weather"
	NameCalculator = "calculator"
)

// Tool is a callable capability.
type Tool interface {
	Name() string
	// Fallback is the text shown in place of a result when Call fails.
	Fallback() string
	Call(ctx context.Context, input string) (string, error)
}

// Invoke calls tool with input. Validation errors are returned unchanged;
// any other failure is logged under a fresh incident ID and returned as a
// *errors.ToolExecutionError.
func Invoke(ctx context.Context, logger *slog.Logger, tool Tool, input string) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out, err := tool.Call(ctx, input)
	if err == nil {
		return out, nil
	}

	var valErr *fgerrors.ValidationError
	if errors.As(err, &valErr) {
		return "", err
	}

	incident := uuid.NewString()
	logger.Error("tool failed",
		slog.String("tool", tool.Name()),
		slog.String("incident_id", incident),
		slog.String("category", fgerrors.Categorize(err).String()),
		slog.String("error", err.Error()),
	)
	return "", &fgerrors.ToolExecutionError{
		Tool:       tool.Name(),
		IncidentID: incident,
		Fallback:   tool.Fallback(),
		Err:        err,
	}
}
