package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("flowgraph")
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("flowgraph")
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestSpanManager_RunAndNodeSpans(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, runSpan := sm.StartRunSpan(context.Background(), "agent", "run-1")
	nodeCtx, nodeSpan := sm.StartNodeSpan(ctx, "analyze")
	sm.AddSpanEvent(nodeCtx, "routed", attribute.String("to", "choose_tool"))
	sm.EndSpanWithError(nodeSpan, nil)
	sm.EndSpanWithError(runSpan, errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	node, run := spans[0], spans[1]
	assert.Equal(t, "flowgraph.node.analyze", node.Name)
	assert.Equal(t, run.SpanContext.SpanID(), node.Parent.SpanID())
	assert.Equal(t, codes.Ok, node.Status.Code)
	require.Len(t, node.Events, 1)
	assert.Equal(t, "routed", node.Events[0].Name)

	assert.Equal(t, "flowgraph.run", run.Name)
	assert.Equal(t, codes.Error, run.Status.Code)
	assert.Contains(t, run.Attributes, attribute.String("run.id", "run-1"))
	assert.Contains(t, run.Attributes, attribute.String("graph.name", "agent"))
}

func TestSpanManager_EndNilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().EndSpanWithError(nil, errors.New("x"))
	})
}

func TestSpanManager_EventWithoutSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().AddSpanEvent(context.Background(), "orphan")
	})
}

func TestNoopSpanManager(t *testing.T) {
	exporter := setupTracingTest(t)
	var sm SpanManager = NoopSpanManager{}

	ctx := context.Background()
	got, span := sm.StartRunSpan(ctx, "agent", "run-1")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	_, span = sm.StartNodeSpan(ctx, "analyze")
	sm.EndSpanWithError(span, errors.New("x"))
	sm.AddSpanEvent(ctx, "ignored")

	assert.Empty(t, exporter.GetSpans())
	assert.False(t, trace.SpanFromContext(got).IsRecording())
}
