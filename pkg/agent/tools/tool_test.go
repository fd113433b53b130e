package tools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubTool struct {
	out string
	err error
}

func (s stubTool) Name() string     { return "stub" }
func (s stubTool) Fallback() string { return "stub unavailable" }
func (s stubTool) Call(context.Context, string) (string, error) {
	return s.out, s.err
}

func TestInvoke_Success(t *testing.T) {
	out, err := Invoke(context.Background(), discardLogger(), stubTool{out: "ok"}, "in")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestInvoke_WrapsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cause := &fgerrors.ConnectionError{Endpoint: "geocode", Err: errors.New("refused")}

	_, err := Invoke(context.Background(), logger, stubTool{err: cause}, "Paris")

	var toolErr *fgerrors.ToolExecutionError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "stub", toolErr.Tool)
	assert.Equal(t, "stub unavailable", toolErr.Fallback)
	_, parseErr := uuid.Parse(toolErr.IncidentID)
	assert.NoError(t, parseErr)

	var connErr *fgerrors.ConnectionError
	assert.ErrorAs(t, err, &connErr)

	assert.Contains(t, buf.String(), `"msg":"tool failed"`)
	assert.Contains(t, buf.String(), toolErr.IncidentID)
	assert.Contains(t, buf.String(), `"category":"transient"`)
}

func TestInvoke_DistinctIncidents(t *testing.T) {
	tool := stubTool{err: errors.New("boom")}
	_, err1 := Invoke(context.Background(), discardLogger(), tool, "")
	_, err2 := Invoke(context.Background(), discardLogger(), tool, "")

	var a, b *fgerrors.ToolExecutionError
	require.ErrorAs(t, err1, &a)
	require.ErrorAs(t, err2, &b)
	assert.NotEqual(t, a.IncidentID, b.IncidentID)
	assert.Equal(t, err1.Error(), err2.Error())
	assert.NotContains(t, err1.Error(), a.IncidentID)
}

func TestInvoke_ValidationPassesThrough(t *testing.T) {
	valErr := &fgerrors.ValidationError{Field: "expression", Message: "bad"}

	_, err := Invoke(context.Background(), nil, stubTool{err: valErr}, "DROP TABLE")

	assert.Same(t, valErr, err)
	var toolErr *fgerrors.ToolExecutionError
	assert.False(t, errors.As(err, &toolErr))
}

func TestInvoke_CalculatorValidation(t *testing.T) {
	_, err := Invoke(context.Background(), discardLogger(), NewCalculator(discardLogger()), "DROP TABLE")

	var valErr *fgerrors.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
