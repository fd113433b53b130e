package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Prompt is a fixed single-message template with {name} placeholders.
// Literal braces are written as {{ and }}.
type Prompt struct {
	name string
	tpl  prompt.ChatTemplate
}

// NewPrompt parses nothing up front; placeholder errors surface at Render.
func NewPrompt(name, text string) *Prompt {
	return &Prompt{
		name: name,
		tpl:  prompt.FromMessages(schema.FString, schema.UserMessage(text)),
	}
}

// Name returns the prompt's name.
func (p *Prompt) Name() string {
	return p.name
}

// Render substitutes vars into the template.
func (p *Prompt) Render(ctx context.Context, vars map[string]any) (string, error) {
	msgs, err := p.tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", p.name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("render prompt %s: empty result", p.name)
	}
	return msgs[0].Content, nil
}

// Request renders the prompt into a single-turn CompletionRequest.
func (p *Prompt) Request(ctx context.Context, vars map[string]any) (CompletionRequest, error) {
	text, err := p.Render(ctx, vars)
	if err != nil {
		return CompletionRequest{}, err
	}
	return UserRequest(text), nil
}
