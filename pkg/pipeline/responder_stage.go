package pipeline

import (
	"context"
	"time"
)

// responderMaxRetries and responderRetryDelay match the original
// implementation's Responder backoff (original_source/src/responder.py:
// MAX_RETRIES=5, RETRY_DELAY=1.0).
const (
	responderMaxRetries = 5
	responderRetryDelay = time.Second
)

// ResponderStage consumes finalized Transcripts, appends them to the
// conversation as user turns, streams a reply through Responder,
// re-segments the stream into Sentences via SentenceSplitter, and pushes
// each sentence for synthesis as soon as it completes. It aborts the
// in-flight reply the instant the speaking flag trips, matching the
// original's speaking_event check inside the streaming loop.
type ResponderStage struct {
	llm   Responder
	conv  *Conversation
	in    *Queue[Transcript]
	out   *Queue[Sentence]
	flags *Flags
	log   Logger
}

// NewResponderStage wires llm between in and out, reading/writing conv.
func NewResponderStage(llm Responder, conv *Conversation, in *Queue[Transcript], out *Queue[Sentence], flags *Flags, log Logger) *ResponderStage {
	return &ResponderStage{llm: llm, conv: conv, in: in, out: out, flags: flags, log: log}
}

// Run processes transcripts until the exit flag is set.
func (r *ResponderStage) Run(ctx context.Context) {
	for !r.flags.Exit() {
		t, ok := r.in.Pop(pollInterval)
		if !ok {
			continue
		}
		if t.Text == "" {
			continue
		}

		turns := r.conv.Append(RoleUser, t.Text)
		r.respondWithRetry(ctx, turns)
	}
}

func (r *ResponderStage) respondWithRetry(ctx context.Context, turns []Turn) {
	for attempt := 0; attempt < responderMaxRetries; attempt++ {
		if r.flags.Exit() {
			return
		}

		splitter := NewSentenceSplitter()
		aborted := false
		err := r.llm.Respond(ctx, turns, func(token string) {
			if aborted || r.flags.Speaking() {
				aborted = true
				return
			}
			for _, s := range splitter.Add(token) {
				r.emit(s)
			}
		})

		if aborted {
			return // barge-in cut the reply short; do not retry, do not flush
		}
		if err == nil {
			for _, s := range splitter.Flush() {
				r.emit(s)
			}
			return
		}

		r.log.Warn("responder call failed, retrying", "attempt", attempt, "error", err)
		if waitFlag(r.flags.Speaking, responderRetryDelay) {
			return // interrupted during backoff
		}
	}
	r.log.Error("responder exhausted retries")
}

// emit queues s for synthesis. The conversation only gains assistant text
// as SinkStage actually plays it word-by-word, so an interrupted reply
// leaves the transcript showing only what was truly heard.
func (r *ResponderStage) emit(s Sentence) {
	r.out.Push(s)
}
