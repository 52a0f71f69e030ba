package pipeline

import "context"

// Transcriber turns one Utterance into text. Implementations may call out
// to a remote ASR API; callers are expected to retry transient failures
// themselves (see Responder's retry discipline for the matching pattern).
type Transcriber interface {
	Transcribe(ctx context.Context, u Utterance) (string, error)
}

// TokenSink receives incremental text from a streaming LLM call.
type TokenSink func(token string)

// Responder generates a streamed reply to the conversation so far,
// invoking emit for each token as it arrives.
type Responder interface {
	Respond(ctx context.Context, turns []Turn, emit TokenSink) error
}

// Synthesizer renders text to mono float32 PCM at its own native sample
// rate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (samples []float32, sampleRate int, err error)
}
