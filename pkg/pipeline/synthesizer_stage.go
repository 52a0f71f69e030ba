package pipeline

import (
	"context"
	"time"
)

// synthesizerRetries matches the original implementation's synthesizer
// retry budget (original_source/src/synthesizer.py).
const synthesizerRetries = 3

// SynthesizerStage renders each Sentence to audio and pushes the result
// for playback, dropping sentences outright once the speaking flag
// trips so a barge-in does not keep synthesizing a reply nobody will
// hear.
type SynthesizerStage struct {
	tts   Synthesizer
	in    *Queue[Sentence]
	out   *Queue[SynthClip]
	flags *Flags
	log   Logger
}

// NewSynthesizerStage wires tts between in and out.
func NewSynthesizerStage(tts Synthesizer, in *Queue[Sentence], out *Queue[SynthClip], flags *Flags, log Logger) *SynthesizerStage {
	return &SynthesizerStage{tts: tts, in: in, out: out, flags: flags, log: log}
}

// Run processes sentences until the exit flag is set.
func (s *SynthesizerStage) Run(ctx context.Context) {
	for !s.flags.Exit() {
		sentence, ok := s.in.Pop(pollInterval)
		if !ok {
			continue
		}
		if s.flags.Speaking() {
			continue
		}

		samples, rate, err := s.synthesizeWithRetry(ctx, sentence.Text)
		if err != nil {
			s.log.Error("synthesis failed", "error", err)
			continue
		}
		if s.flags.Speaking() {
			continue
		}
		s.out.Push(SynthClip{Text: sentence.Text, Samples: samples, SampleRate: rate})
	}
}

func (s *SynthesizerStage) synthesizeWithRetry(ctx context.Context, text string) ([]float32, int, error) {
	var lastErr error
	for attempt := 0; attempt < synthesizerRetries; attempt++ {
		samples, rate, err := s.tts.Synthesize(ctx, text)
		if err == nil {
			return samples, rate, nil
		}
		lastErr = err
		if waitFlag(s.flags.Speaking, 250*time.Millisecond) {
			return nil, 0, lastErr // barge-in during backoff; abandon the retry
		}
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
	}
	return nil, 0, lastErr
}
