// Package server exposes the agent over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randalmurphal/toolgraph/pkg/agent"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/journal"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/render"
)

// maxBodyBytes bounds an ask request body.
const maxBodyBytes = 64 << 10

// Asker answers one question. *agent.Agent satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (*agent.Result, error)
}

// Server serves questions one at a time.
type Server struct {
	asker   Asker
	graph   render.Graph[agent.Step]
	journal journal.Store
	logger  *slog.Logger

	// mu serializes Ask calls.
	mu sync.Mutex

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	answers  *prometheus.CounterVec
	latency  prometheus.Histogram
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJournal enables the run endpoints and run overlays on the graph.
func WithJournal(store journal.Store) Option {
	return func(s *Server) { s.journal = store }
}

// New creates a server for asker. graph is drawn by GET /v1/graph.
func New(asker Asker, graph render.Graph[agent.Step], opts ...Option) *Server {
	s := &Server{
		asker:    asker,
		graph:    graph,
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toolgraph_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toolgraph_answers_total",
			Help: "Answered questions by tool and outcome.",
		}, []string{"tool", "failed"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "toolgraph_ask_duration_seconds",
			Help:    "Time to answer a question.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry.MustRegister(s.requests, s.answers, s.latency)
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.ask)
		r.Get("/graph", s.getGraph)
		r.Get("/runs/{runID}", s.getRun)
	})
	return r
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

type askRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Error string `json:"error"`
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	start := time.Now()
	s.mu.Lock()
	res, err := s.asker.Ask(r.Context(), body.Question)
	s.mu.Unlock()
	s.latency.Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("ask failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		resp := errorResponse{Error: err.Error()}
		if res != nil {
			resp.RunID = res.RunID
		}
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, resp)
		return
	}

	s.answers.WithLabelValues(string(res.State.ToolName.Or("none")), strconv.FormatBool(res.State.Failed())).Inc()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *render.Overlay
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		entries, ok := s.entries(w, r, runID)
		if !ok {
			return
		}
		overlay = &render.Overlay{}
		for _, e := range entries {
			overlay.VisitedNodes = append(overlay.VisitedNodes, e.NodeID)
		}
		overlay.CurrentNode = entries[len(entries)-1].NodeID
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(render.Mermaid[agent.Step](s.graph, overlay)))
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.entries(w, r, chi.URLParam(r, "runID"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// entries loads a run's journal, writing an error response when it
// cannot.
func (s *Server) entries(w http.ResponseWriter, r *http.Request, runID string) ([]journal.Entry, bool) {
	if s.journal == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "journal disabled"})
		return nil, false
	}
	runID = strings.TrimSpace(runID)
	entries, err := s.journal.List(r.Context(), runID)
	if err != nil {
		s.logger.Error("journal read failed", slog.String("run_id", runID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "journal read failed"})
		return nil, false
	}
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown run", RunID: runID})
		return nil, false
	}
	return entries, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
