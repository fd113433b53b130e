package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/toolgraph/pkg/agent/tools"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/journal"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/llm"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/observability"
)

// GraphName labels runs in traces and logs.
const GraphName = "toolgraph"

// ModelFactory creates the model client. It is retried on failure.
type ModelFactory func(ctx context.Context) (llm.Client, error)

// StaticModel is a ModelFactory for an existing client.
func StaticModel(c llm.Client) ModelFactory {
	return func(context.Context) (llm.Client, error) { return c, nil }
}

// Agent answers questions by running the reasoning graph.
type Agent struct {
	graph      *flowgraph.CompiledGraph[Step, State]
	logger     *slog.Logger
	journal    journal.Store
	metrics    observability.MetricsRecorder
	tracing    bool
	runTimeout time.Duration
}

type options struct {
	logger      *slog.Logger
	weather     tools.Tool
	calculator  tools.Tool
	journal     journal.Store
	metrics     observability.MetricsRecorder
	tracing     bool
	runTimeout  time.Duration
	temperature float64
	retry       fgerrors.RetryConfig
}

// Option configures an Agent.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWeather replaces the weather tool.
func WithWeather(t tools.Tool) Option {
	return func(o *options) { o.weather = t }
}

// WithCalculator replaces the calculator tool.
func WithCalculator(t tools.Tool) Option {
	return func(o *options) { o.calculator = t }
}

// WithJournal records every step of every run in store.
func WithJournal(store journal.Store) Option {
	return func(o *options) { o.journal = store }
}

// WithMetricsRecorder records executor metrics.
func WithMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracing enables run and step spans.
func WithTracing(enabled bool) Option {
	return func(o *options) { o.tracing = enabled }
}

// WithRunTimeout bounds a whole Ask call. Zero means no bound.
func WithRunTimeout(d time.Duration) Option {
	return func(o *options) { o.runTimeout = d }
}

// WithTemperature sets the sampling temperature of every model call.
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = t }
}

// WithRetry sets the retry policy for model setup and graph compilation.
func WithRetry(cfg fgerrors.RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

// New initializes the model and compiles the graph, retrying each step.
// Failures are returned as *errors.ExecutionError.
func New(ctx context.Context, model ModelFactory, opts ...Option) (*Agent, error) {
	o := options{
		logger:      slog.Default(),
		temperature: llm.DefaultTemperature,
		retry:       fgerrors.DefaultRetry,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.weather == nil {
		o.weather = tools.NewWeather(tools.WithWeatherLogger(o.logger))
	}
	if o.calculator == nil {
		o.calculator = tools.NewCalculator(o.logger)
	}

	h := fgerrors.NewHandler(fgerrors.WithLogger(o.logger), fgerrors.WithRetryConfig(o.retry))

	client, err := fgerrors.ExecuteWithValue(ctx, h, "initialize model", func(ctx context.Context) (llm.Client, error) {
		return model(ctx)
	})
	if err != nil {
		return nil, err
	}

	// Compilation is retried whatever the failure.
	buildRetry := o.retry.With(fgerrors.WithRetryableFunc(func(error) bool { return true }))
	buildHandler := fgerrors.NewHandler(fgerrors.WithLogger(o.logger), fgerrors.WithRetryConfig(buildRetry))

	nodes := NewNodes(client, o.weather, o.calculator, o.temperature)
	graph, err := fgerrors.ExecuteWithValue(ctx, buildHandler, "build graph", func(context.Context) (*flowgraph.CompiledGraph[Step, State], error) {
		return BuildGraph(nodes)
	})
	if err != nil {
		return nil, err
	}

	metrics := o.metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	return &Agent{
		graph:      graph,
		logger:     o.logger,
		journal:    o.journal,
		metrics:    metrics,
		tracing:    o.tracing,
		runTimeout: o.runTimeout,
	}, nil
}

// Graph returns the compiled reasoning graph.
func (a *Agent) Graph() *flowgraph.CompiledGraph[Step, State] {
	return a.graph
}

// Result is the outcome of one question.
type Result struct {
	RunID  string `json:"run_id"`
	Answer string `json:"answer"`
	State  State  `json:"state"`
}

// Ask runs the graph on a fresh State for question. Step failures are
// degraded into an apology answer; only executor failures (cancellation,
// router misconfiguration) return an error, as *errors.ExecutionError.
func (a *Agent) Ask(ctx context.Context, question string) (*Result, error) {
	if a.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.runTimeout)
		defer cancel()
	}

	fctx := flowgraph.NewContext(ctx, flowgraph.WithLogger(a.logger))
	runOpts := []flowgraph.RunOption{
		flowgraph.WithGraphName(GraphName),
		flowgraph.WithObservabilityLogger(a.logger),
		flowgraph.WithMetricsRecorder(a.metrics),
		flowgraph.WithTracing(a.tracing),
	}
	if a.journal != nil {
		runOpts = append(runOpts, flowgraph.WithJournal(a.journal))
	}

	final, err := a.graph.Run(fctx, NewState(question), runOpts...)
	result := &Result{
		RunID:  fctx.RunID(),
		Answer: final.Answer.Or(""),
		State:  final,
	}
	if err != nil {
		return result, &fgerrors.ExecutionError{Op: "run graph", Err: err}
	}
	if strings.TrimSpace(result.Answer) == "" {
		return result, &fgerrors.ExecutionError{
			Op:  "run graph",
			Err: fmt.Errorf("run %s finished without an answer", result.RunID),
		}
	}
	return result, nil
}
