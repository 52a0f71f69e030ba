package pipeline

import "context"

// SegmenterStage drives a Segmenter from a queue of captured AudioFrames,
// toggling the shared speaking flag as speech starts and ends so every
// downstream stage can react to a barge-in within one poll interval.
type SegmenterStage struct {
	seg   *Segmenter
	in    *Queue[AudioFrame]
	out   *Queue[Utterance]
	flags *Flags
	log   Logger
}

// NewSegmenterStage wires seg between in and out.
func NewSegmenterStage(seg *Segmenter, in *Queue[AudioFrame], out *Queue[Utterance], flags *Flags, log Logger) *SegmenterStage {
	return &SegmenterStage{seg: seg, in: in, out: out, flags: flags, log: log}
}

// Run processes frames until the exit flag is set.
func (s *SegmenterStage) Run(_ context.Context) {
	for !s.flags.Exit() {
		frame, ok := s.in.Pop(pollInterval)
		if !ok {
			continue
		}

		wasInSpeech := s.seg.inSpeech
		u, err := s.seg.Push(frame)
		if err != nil {
			s.log.Error("vad scoring failed", "error", err)
			continue
		}

		if !wasInSpeech && s.seg.inSpeech {
			s.flags.SetSpeaking(true)
		}
		if u != nil {
			s.flags.SetSpeaking(false)
			s.out.Push(*u)
		}
	}
}
