package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

// Default Gemini settings.
const (
	DefaultModel       = "gemini-1.5-flash"
	DefaultTemperature = 0.1
	DefaultTimeout     = 30 * time.Second
)

// Gemini implements Client on top of an eino chat model backed by the
// Gemini API.
type Gemini struct {
	chat        model.BaseChatModel
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// GeminiOption configures Gemini.
type GeminiOption func(*Gemini)

// WithModel sets the default model.
func WithModel(name string) GeminiOption {
	return func(g *Gemini) {
		if name != "" {
			g.model = name
		}
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(url string) GeminiOption {
	return func(g *Gemini) { g.baseURL = url }
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) GeminiOption {
	return func(g *Gemini) { g.temperature = t }
}

// WithMaxTokens sets the default output token limit. Zero leaves the
// provider default.
func WithMaxTokens(n int) GeminiOption {
	return func(g *Gemini) { g.maxTokens = n }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) GeminiOption {
	return func(g *Gemini) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGemini connects to the Gemini API with the given key.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, &fgerrors.ValidationError{Field: "api_key", Message: "Gemini API key is not set"}
	}

	g := newGemini(nil, opts...)

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = g.baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	temperature := float32(g.temperature)
	cfg := &gemini.Config{
		Client:      client,
		Model:       g.model,
		Temperature: &temperature,
	}
	if g.maxTokens > 0 {
		maxTokens := g.maxTokens
		cfg.MaxTokens = &maxTokens
	}

	chat, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create Gemini chat model: %w", err)
	}
	g.chat = chat
	return g, nil
}

// NewGeminiWithModel wraps an existing eino chat model.
func NewGeminiWithModel(chat model.BaseChatModel, opts ...GeminiOption) *Gemini {
	return newGemini(chat, opts...)
}

func newGemini(chat model.BaseChatModel, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		chat:        chat,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the default model name.
func (g *Gemini) Model() string {
	return g.model
}

// Complete implements Client.
func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	modelName := g.model
	if req.Model != "" {
		modelName = req.Model
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.chat.Generate(callCtx, toSchemaMessages(req), g.callOptions(req, modelName)...)
	if err != nil {
		return nil, g.classify(ctx, callCtx, modelName, err)
	}
	if out == nil || out.Content == "" {
		return nil, &fgerrors.ModelResponseError{Model: modelName, Message: "empty content"}
	}

	resp := &CompletionResponse{
		Content:  out.Content,
		Model:    modelName,
		Duration: time.Since(start),
	}
	if meta := out.ResponseMeta; meta != nil {
		resp.FinishReason = meta.FinishReason
		if meta.Usage != nil {
			resp.Usage = TokenUsage{
				InputTokens:  meta.Usage.PromptTokens,
				OutputTokens: meta.Usage.CompletionTokens,
				TotalTokens:  meta.Usage.TotalTokens,
			}
		}
	}
	return resp, nil
}

func (g *Gemini) callOptions(req CompletionRequest, modelName string) []model.Option {
	opts := []model.Option{model.WithModel(modelName)}

	temperature := g.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	opts = append(opts, model.WithTemperature(float32(temperature)))

	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	} else if g.maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(g.maxTokens))
	}
	return opts
}

// classify maps a Generate failure onto the error taxonomy. A deadline
// hit by the per-call timeout, not the caller's context, is a timeout.
func (g *Gemini) classify(parent, callCtx context.Context, modelName string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &fgerrors.TimeoutError{Operation: "generate " + modelName, Duration: g.timeout, Err: err}
	}
	wrapped := fmt.Errorf("generate %s: %w", modelName, err)
	if isRetryableMessage(err.Error()) {
		return fgerrors.Transient(wrapped, "gemini")
	}
	return wrapped
}

func toSchemaMessages(req CompletionRequest) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, schema.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, schema.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}
	return msgs
}
