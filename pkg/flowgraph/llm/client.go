package llm

import (
	"context"
	"strings"
)

// Client produces completions from a language model.
//
// Implementations must be safe for sequential reuse across runs. Errors
// should be classifiable with the flowgraph errors package: deadlines as
// *errors.TimeoutError, empty output as *errors.ModelResponseError.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// isRetryableMessage checks if an error message indicates a transient error.
func isRetryableMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "unavailable") ||
		strings.Contains(lower, "429") ||
		strings.Contains(lower, "503")
}
