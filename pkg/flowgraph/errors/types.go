package errors

import (
	"fmt"
	"time"
)

// HTTPError is a non-2xx response from an upstream service.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// TimeoutError indicates an operation exceeded its deadline.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	Err       error
}

func (e *TimeoutError) Error() string {
	if e.Duration > 0 {
		return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
	}
	return fmt.Sprintf("timeout: %s", e.Operation)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ConnectionError indicates the remote end could not be reached.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// MalformedResponseError indicates a response that could not be decoded
// or lacked required fields.
type MalformedResponseError struct {
	Endpoint string
	Message  string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ValidationError indicates rejected input. It is raised before any side
// effect takes place.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ToolExecutionError wraps a failure inside a tool adapter. Fallback is
// the user-facing text to show instead of the tool's result. IncidentID
// correlates the error with its log line and is kept out of Error.
type ToolExecutionError struct {
	Tool       string
	IncidentID string
	Fallback   string
	Err        error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// ModelResponseError indicates the language model returned nothing usable.
type ModelResponseError struct {
	Model   string
	Message string
	Err     error
}

func (e *ModelResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model %s: %s: %v", e.Model, e.Message, e.Err)
	}
	return fmt.Sprintf("model %s: %s", e.Model, e.Message)
}

func (e *ModelResponseError) Unwrap() error {
	return e.Err
}

// ExecutionError is a failure to build or run the agent itself. Unlike the
// other kinds it is never degraded into an answer.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
