package pipeline

import (
	"context"
	"time"
)

// transcriberRetries matches the original implementation's transcriber
// retry budget (original_source/src/transcriber.py).
const transcriberRetries = 3

// TranscriberStage drains Utterances and produces Transcripts, retrying
// transient ASR failures a bounded number of times before giving up on
// an utterance and moving on.
type TranscriberStage struct {
	asr   Transcriber
	in    *Queue[Utterance]
	out   *Queue[Transcript]
	flags *Flags
	log   Logger
}

// NewTranscriberStage wires asr between in and out.
func NewTranscriberStage(asr Transcriber, in *Queue[Utterance], out *Queue[Transcript], flags *Flags, log Logger) *TranscriberStage {
	return &TranscriberStage{asr: asr, in: in, out: out, flags: flags, log: log}
}

// Run processes utterances until the exit flag is set.
func (t *TranscriberStage) Run(ctx context.Context) {
	for !t.flags.Exit() {
		u, ok := t.in.Pop(pollInterval)
		if !ok {
			continue
		}

		text, err := t.transcribeWithRetry(ctx, u)
		if err != nil {
			t.log.Error("transcription failed", "error", err)
			continue
		}
		if text == "" {
			continue
		}
		t.out.Push(Transcript{Text: text})
	}
}

func (t *TranscriberStage) transcribeWithRetry(ctx context.Context, u Utterance) (string, error) {
	var lastErr error
	for attempt := 0; attempt < transcriberRetries; attempt++ {
		text, err := t.asr.Transcribe(ctx, u)
		if err == nil {
			return text, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return "", lastErr
}
