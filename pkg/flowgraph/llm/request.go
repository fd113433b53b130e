package llm

import (
	"time"
)

// CompletionRequest is one call to the model. Each reasoning step sends a
// single rendered user message.
type CompletionRequest struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`

	// Zero values fall back to the client defaults.
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Message is one turn sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// UserRequest is a single-turn request carrying one user message.
func UserRequest(content string) CompletionRequest {
	return CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: content}},
	}
}

// CompletionResponse is the model's reply. Duration is measured by the
// client around the provider call.
type CompletionResponse struct {
	Content      string        `json:"content"`
	Usage        TokenUsage    `json:"usage"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason"`
	Duration     time.Duration `json:"duration"`
}

// TokenUsage counts tokens as reported by the provider.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
