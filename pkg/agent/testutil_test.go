package agent

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/toolgraph/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCtx() flowgraph.Context {
	return flowgraph.NewContext(context.Background(), flowgraph.WithLogger(discardLogger()))
}

var fastRetry = fgerrors.NewRetryConfig(
	fgerrors.WithMaxAttempts(3),
	fgerrors.WithInitialBackoff(time.Millisecond),
	fgerrors.WithJitter(0),
)

// script answers each prompt kind with a fixed reply. Replies for kinds
// listed in fail return that error instead.
type script struct {
	thoughts   string
	tool       string
	city       string
	expression string
	direct     string
	fail       map[string]error
}

func promptKind(text string) string {
	switch {
	case strings.Contains(text, "Think the problem through."):
		return "analyze"
	case strings.Contains(text, "Choose the most appropriate tool"):
		return "choose_tool"
	case strings.Contains(text, "Extract the city name"):
		return "extract_city"
	case strings.Contains(text, "Extract the arithmetic expression"):
		return "extract_expression"
	case strings.Contains(text, "Give a direct answer"):
		return "direct_answer"
	case strings.Contains(text, "Write a complete and clear answer."):
		return "compose_answer"
	}
	return "unknown"
}

func observationOf(text string) string {
	_, rest, _ := strings.Cut(text, "Observation: ")
	obs, _, _ := strings.Cut(rest, "\n")
	return obs
}

func (sc script) client() *llm.MockClient {
	return llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		text := req.Messages[0].Content
		kind := promptKind(text)
		if err := sc.fail[kind]; err != nil {
			return nil, err
		}

		var content string
		switch kind {
		case "analyze":
			content = sc.thoughts
		case "choose_tool":
			content = sc.tool
		case "extract_city":
			content = sc.city
		case "extract_expression":
			content = sc.expression
		case "direct_answer":
			content = sc.direct
		case "compose_answer":
			content = "Answer: " + observationOf(text)
		}
		return &llm.CompletionResponse{Content: content, Model: "mock", FinishReason: "stop"}, nil
	})
}

func promptKinds(m *llm.MockClient) []string {
	var kinds []string
	for _, c := range m.Calls {
		kinds = append(kinds, promptKind(c.Messages[0].Content))
	}
	return kinds
}

// stubTool records inputs and returns a fixed result.
type stubTool struct {
	mu     sync.Mutex
	name   string
	out    string
	err    error
	inputs []string
}

func (s *stubTool) Name() string     { return s.name }
func (s *stubTool) Fallback() string { return s.name + " is unavailable." }
func (s *stubTool) Call(_ context.Context, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, input)
	return s.out, s.err
}

func (s *stubTool) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inputs...)
}
