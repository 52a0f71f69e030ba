package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aspenagent/aspen/pkg/pipeline"
)

// AnthropicLLM streams a reply token-by-token via the official Anthropic
// SDK, replacing the teacher's one-shot REST Complete() call with real
// streaming so the responder can re-segment into sentences as tokens
// arrive instead of waiting for a full response.
type AnthropicLLM struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicLLM builds a client authenticated with apiKey, defaulting
// to Claude 3.5 Sonnet when model is empty.
func NewAnthropicLLM(apiKey, model string) *AnthropicLLM {
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaude3_5SonnetLatest
	}
	return &AnthropicLLM{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

// Respond implements pipeline.Responder.
func (l *AnthropicLLM) Respond(ctx context.Context, turns []pipeline.Turn, emit pipeline.TokenSink) error {
	var system string
	var messages []anthropic.MessageParam
	for _, t := range turns {
		switch t.Role {
		case pipeline.RoleSystem:
			system = t.Text
		case pipeline.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		case pipeline.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     l.model,
		MaxTokens: 1024,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := l.client.Messages.NewStreaming(ctx, params)
	for stream.Next() {
		event := stream.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if text := delta.Delta.Text; text != "" {
			emit(text)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic streaming: %w", err)
	}
	return nil
}

// Name identifies this provider for logging/config selection.
func (l *AnthropicLLM) Name() string { return "anthropic-llm" }

// Warmup issues a minimal, throwaway call so the first real request
// doesn't pay TLS/connection setup latency, matching the original
// implementation's warm-up call with max_tokens=1
// (original_source/src/responder.py).
func (l *AnthropicLLM) Warmup(ctx context.Context) {
	_, _ = l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     l.model,
		MaxTokens: 1,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("hi"))},
	})
}
