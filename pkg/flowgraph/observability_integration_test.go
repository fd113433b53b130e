package flowgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/randalmurphal/toolgraph/pkg/flowgraph/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func jsonLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func messages(recs []map[string]any) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r["msg"].(string))
	}
	return out
}

func degradingGraph(t *testing.T) *CompiledGraph[nodeID, trail] {
	return mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("a", visit("a")).
		AddNode("fail", failing(errBoom, trail{})).
		AddNode("done", visit("done")).
		AddEdge("a", "fail").
		AddConditionalEdge("fail", routeTo("done"), "done").
		AddEdge("done", END).
		SetEntry("a").
		SetFallback(degrade))
}

func TestRun_WithObservabilityLogger(t *testing.T) {
	logger, buf := jsonLogger()

	_, err := degradingGraph(t).Run(testCtx(), trail{},
		WithRunID("run-obs"),
		WithObservabilityLogger(logger))
	require.NoError(t, err)

	recs := records(t, buf)
	assert.Equal(t, []string{
		"graph run starting",
		"node starting", "node completed",
		"node starting", "node degraded", "route selected",
		"node starting", "node completed",
		"graph run completed",
	}, messages(recs))

	last := recs[len(recs)-1]
	assert.Equal(t, "run-obs", last["run_id"])
	assert.Equal(t, float64(3), last["nodes_executed"])
	assert.Equal(t, float64(1), last["nodes_degraded"])
}

func TestRun_LogsRunError(t *testing.T) {
	logger, buf := jsonLogger()
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("fail", failing(errBoom, trail{})).
		AddEdge("fail", END).
		SetEntry("fail"))

	_, err := compiled.Run(testCtx(), trail{}, WithObservabilityLogger(logger))
	require.Error(t, err)

	recs := records(t, buf)
	last := recs[len(recs)-1]
	assert.Equal(t, "graph run failed", last["msg"])
	assert.Equal(t, "fail", last["last_node"])
}

func TestRun_NodeLoggerIsEnriched(t *testing.T) {
	logger, buf := jsonLogger()
	node := func(ctx Context, _ trail) (trail, error) {
		ctx.Logger().Info("inside")
		return trail{}, nil
	}
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("work", node).
		AddEdge("work", END).
		SetEntry("work"))

	ctx := NewContext(context.Background(), WithLogger(logger), WithContextRunID("run-7"))
	_, err := compiled.Run(ctx, trail{})
	require.NoError(t, err)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "run-7", recs[0]["run_id"])
	assert.Equal(t, "work", recs[0]["node_id"])
}

func TestRun_WithJournal(t *testing.T) {
	store := journal.NewMemoryStore()

	result, err := degradingGraph(t).Run(testCtx(), trail{}, WithRunID("run-j"), WithJournal(store))
	require.NoError(t, err)
	assert.True(t, result.Failed)

	entries, err := store.List(context.Background(), "run-j")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "a", entries[0].NodeID)
	assert.Equal(t, "fail", entries[0].NextNode)
	assert.False(t, entries[0].Degraded)

	assert.Equal(t, "fail", entries[1].NodeID)
	assert.True(t, entries[1].Degraded)
	assert.Contains(t, entries[1].Error, "boom")
	assert.Equal(t, "done", entries[1].NextNode)

	var snapshot trail
	require.NoError(t, json.Unmarshal(entries[2].State, &snapshot))
	assert.Equal(t, []string{"a", "done"}, snapshot.Trail)
	assert.Equal(t, END, entries[2].NextNode)

	for i, e := range entries {
		assert.Equal(t, i+1, e.Seq)
	}
}

type failingJournal struct{ journal.Store }

func (failingJournal) Append(context.Context, journal.Entry) error {
	return errors.New("disk full")
}

func TestRun_JournalFailureDoesNotAbort(t *testing.T) {
	logger, buf := jsonLogger()

	_, err := degradingGraph(t).Run(testCtx(), trail{},
		WithJournal(failingJournal{}),
		WithObservabilityLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, messages(records(t, buf)), "journal append failed")
}

func TestRun_WithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	_, err := degradingGraph(t).Run(testCtx(), trail{}, WithTracing(true), WithGraphName("agent"))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{
		"flowgraph.node.a",
		"flowgraph.node.fail",
		"flowgraph.node.done",
		"flowgraph.run",
	}, names)

	run := spans[len(spans)-1]
	require.Len(t, run.Events, 1)
	assert.Equal(t, "flowgraph.route", run.Events[0].Name)
}

func TestRun_MetricsAndTracingDisabled(t *testing.T) {
	result, err := degradingGraph(t).Run(testCtx(), trail{}, WithMetrics(false), WithTracing(false))
	require.NoError(t, err)
	assert.True(t, result.Failed)
}
