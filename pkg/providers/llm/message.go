// Package llm provides Responder implementations: a real streaming
// Anthropic client plus one-shot REST providers for OpenAI, Google and
// Groq, adapted from the teacher's pkg/providers/llm to the pipeline's
// streaming Responder contract.
package llm

import "github.com/aspenagent/aspen/pkg/pipeline"

// message is the wire shape most chat-completion APIs expect.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toMessages(turns []pipeline.Turn) []message {
	out := make([]message, len(turns))
	for i, t := range turns {
		out[i] = message{Role: string(t.Role), Content: t.Text}
	}
	return out
}
