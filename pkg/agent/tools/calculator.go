package tools

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/randalmurphal/toolgraph/pkg/agent/tools/expr"
	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

// MaxExpressionLength bounds calculator input.
const MaxExpressionLength = 100

// Calculator evaluates arithmetic expressions.
type Calculator struct {
	eval   *expr.Evaluator
	logger *slog.Logger
}

// NewCalculator creates a calculator. A nil logger uses slog.Default.
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{eval: expr.New(), logger: logger}
}

// Name implements Tool.
func (c *Calculator) Name() string { return NameCalculator }

// Fallback implements Tool.
func (c *Calculator) Fallback() string {
	return "The calculation could not be completed."
}

// Call implements Tool. A decimal comma is read as a decimal point.
// Arithmetic faults are reported in the result text, not as errors.
func (c *Calculator) Call(_ context.Context, input string) (string, error) {
	if err := fgerrors.Validate(c.logger, "expression", input, func(s string) bool {
		return strings.TrimSpace(s) != ""
	}, "expression is empty"); err != nil {
		return "", err
	}
	if err := fgerrors.Validate(c.logger, "expression", input, func(s string) bool {
		return len(s) <= MaxExpressionLength
	}, "expression is longer than 100 characters"); err != nil {
		return "", err
	}
	if err := fgerrors.Validate(c.logger, "expression", input, isArithmetic,
		"expression may only contain digits, whitespace and + - * / ( ) . , %"); err != nil {
		return "", err
	}

	v, err := c.eval.Evaluate(strings.ReplaceAll(input, ",", "."))
	switch {
	case err == nil:
		return "Result: " + FormatNumber(v), nil
	case errors.Is(err, expr.ErrDivisionByZero):
		return "Error: division by zero", nil
	case errors.Is(err, expr.ErrNotFinite):
		return "Error: result is too large", nil
	default:
		c.logger.Debug("expression rejected", slog.String("expression", input), slog.String("error", err.Error()))
		return "Error: invalid expression", nil
	}
}

func isArithmetic(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII || unicode.IsSpace(r) {
			continue
		}
		if !strings.ContainsRune("+-*/().,%", r) {
			return false
		}
	}
	return true
}

// FormatNumber prints integral values without decimals and everything
// else rounded to 6 decimal places with trailing zeros trimmed.
func FormatNumber(v float64) string {
	r := math.Round(v*1e6) / 1e6
	if math.IsInf(r, 0) || math.IsNaN(r) {
		r = v
	}
	if r == 0 {
		return "0"
	}
	if r == math.Trunc(r) && math.Abs(r) < 1e21 {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
