// Package errors defines the agent's error taxonomy and the policies
// applied to it: categorization, bounded retry with backoff, and the
// retrying Handler used around one-time initialization steps.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: rate limits, timeouts, dropped connections.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: invalid input, authentication failures, bad configuration.
	CategoryPermanent

	// CategoryEscalatable indicates the model produced something unusable;
	// asking again or with a different prompt might succeed.
	CategoryEscalatable
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryEscalatable:
		return "escalatable"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Categorize determines how an error should be handled.
// Unknown errors are permanent.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryPermanent
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == 429:
			return CategoryTransient
		case httpErr.StatusCode >= 500:
			return CategoryTransient
		default:
			return CategoryPermanent
		}
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return CategoryTransient
	}

	var modelErr *ModelResponseError
	if errors.As(err, &modelErr) {
		return CategoryEscalatable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsEscalatable reports whether asking the model again might help.
func IsEscalatable(err error) bool {
	return Categorize(err) == CategoryEscalatable
}
