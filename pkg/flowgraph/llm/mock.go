package llm

import (
	"context"
	"sync"
)

// MockClient is a Client that serves canned responses.
type MockClient struct {
	mu         sync.Mutex
	response   string
	responses  []string
	next       int
	err        error
	completeFn func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Calls records every request in order.
	Calls []CompletionRequest
}

// NewMockClient returns a mock that always answers with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{response: response}
}

// WithResponses cycles through responses, one per call.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.responses = responses
	return m
}

// WithError makes every call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.err = err
	return m
}

// WithCompleteFunc delegates every call to fn.
func (m *MockClient) WithCompleteFunc(fn func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)) *MockClient {
	m.completeFn = fn
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return nil, err
	}
	fn := m.completeFn
	content := m.response
	if len(m.responses) > 0 {
		content = m.responses[m.next%len(m.responses)]
		m.next++
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	input := 0
	for _, msg := range req.Messages {
		input += approxTokens(msg.Content)
	}
	input += approxTokens(req.SystemPrompt)
	if input == 0 {
		input = 1
	}
	output := approxTokens(content)
	if output == 0 {
		output = 1
	}

	return &CompletionResponse{
		Content:      content,
		Model:        req.Model,
		FinishReason: "stop",
		Usage: TokenUsage{
			InputTokens:  input,
			OutputTokens: output,
			TotalTokens:  input + output,
		},
	}, nil
}

// CallCount returns the number of calls made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or nil.
func (m *MockClient) LastCall() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	last := m.Calls[len(m.Calls)-1]
	return &last
}

// Reset clears recorded calls and restarts the response sequence.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.next = 0
}

func approxTokens(s string) int {
	return (len(s) + 3) / 4
}
