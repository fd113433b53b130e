package errors

import (
	"context"
	"log/slog"
	"time"
)

// Handler runs one-time setup operations (client construction, graph
// compilation) under a bounded retry policy. Exhausted or non-retryable
// failures surface as *ExecutionError.
type Handler struct {
	retry  RetryConfig
	logger *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// NewHandler creates a handler using DefaultRetry.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		retry:  DefaultRetry,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) HandlerOption {
	return func(h *Handler) {
		h.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Execute runs fn with retries.
func (h *Handler) Execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := ExecuteWithValue(ctx, h, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// ExecuteWithValue runs fn with retries and returns its value.
func ExecuteWithValue[T any](ctx context.Context, h *Handler, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	userHook := h.retry.OnRetry
	cfg := h.retry.With(WithOnRetry(func(attempt int, err error, backoff time.Duration) {
		h.logger.Warn("operation failed, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)
		if userHook != nil {
			userHook(attempt, err, backoff)
		}
	}))

	result := WithRetryContext(ctx, cfg, fn)
	if result.Err != nil {
		h.logger.Error("operation failed",
			slog.String("operation", op),
			slog.Int("attempts", result.Attempts),
			slog.String("error", result.Err.Error()),
		)
		var zero T
		return zero, &ExecutionError{Op: op, Err: result.Err}
	}
	return result.Value, nil
}
