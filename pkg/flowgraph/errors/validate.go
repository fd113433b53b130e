package errors

import (
	"fmt"
	"log/slog"
)

// Validate checks value against pred and returns a *ValidationError
// carrying msg when the check fails. Rejections are logged at WARN on
// logger when it is non-nil.
func Validate[T any](logger *slog.Logger, field string, value T, pred func(T) bool, msg string) error {
	if pred(value) {
		return nil
	}
	err := &ValidationError{
		Field:   field,
		Value:   fmt.Sprint(value),
		Message: msg,
	}
	if logger != nil {
		logger.Warn("input rejected",
			slog.String("field", field),
			slog.String("reason", msg),
		)
	}
	return err
}
