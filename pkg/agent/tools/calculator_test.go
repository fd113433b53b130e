package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

func TestCalculator_Call(t *testing.T) {
	calc := NewCalculator(discardLogger())

	tests := []struct {
		input string
		want  string
	}{
		{"15 * 32 + 48", "Result: 528"},
		{"10/0", "Error: division by zero"},
		{"7 % 0", "Error: division by zero"},
		{"2,5 * 2", "Result: 5"},
		{"1,5 + 1", "Result: 2.5"},
		{"10 / 3", "Result: 3.333333"},
		{"2 / 3", "Result: 0.666667"},
		{"0.1 + 0.2", "Result: 0.3"},
		{"-4 * 2", "Result: -8"},
		{"(1 + 2) * (3 + 4)", "Result: 21"},
		{"100 % 7", "Result: 2"},
		{"2 ** 8", "Result: 256"},
		{"1 +", "Error: invalid expression"},
		{"((2)", "Error: invalid expression"},
		{"1..2", "Error: invalid expression"},
		{"()", "Error: invalid expression"},
		{"9 ** 9 ** 9", "Error: result is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := calc.Call(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculator_Validation(t *testing.T) {
	calc := NewCalculator(discardLogger())

	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"letters", "DROP TABLE", "may only contain"},
		{"identifier", "__import__('os')", "may only contain"},
		{"exponent letter", "1e5", "may only contain"},
		{"empty", "", "empty"},
		{"blank", "   ", "empty"},
		{"too long", strings.Repeat("1+", 50) + "1", "longer than 100"},
		{"non-ascii digit", "١ + ٢", "may only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Call(context.Background(), tt.input)

			var valErr *fgerrors.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, "expression", valErr.Field)
			assert.Contains(t, valErr.Message, tt.msg)
		})
	}
}

func TestCalculator_MaxLengthBoundary(t *testing.T) {
	calc := NewCalculator(discardLogger())
	input := strings.Repeat("1", MaxExpressionLength)

	got, err := calc.Call(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Result: "))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{528, "528"},
		{-3, "-3"},
		{0, "0"},
		{2.5, "2.5"},
		{1.0 / 3, "0.333333"},
		{2.0000001, "2"},
		{0.0000004, "0"},
		{-0.0000004, "0"},
		{123456.1234567, "123456.123457"},
		{1e15, "1000000000000000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}
