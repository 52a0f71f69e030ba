package pipeline

import "fmt"

const (
	// speechThreshold is the VAD probability above which a window counts
	// as speech.
	speechThreshold = 0.4
	// preSpeechBuffer is how many windows of pre-roll are prepended to an
	// utterance once speech is confirmed.
	preSpeechBuffer = 25
	// silenceLimit is how many consecutive silent windows end an
	// utterance.
	silenceLimit = 24
	// minSpeechWindows is how many consecutive speech windows are
	// required before an utterance is confirmed as started.
	minSpeechWindows = 3
)

// windowSize returns the VAD window length for sampleRate, matching the
// 512-sample (32ms @16kHz) / 256-sample (32ms @8kHz) windows the original
// segmenter uses.
func windowSize(sampleRate int) int {
	if sampleRate == 16000 {
		return 512
	}
	return 256
}

// Segmenter consumes AudioFrames and emits Utterances once a span of
// speech, confirmed by hysteresis, ends. It owns a carry-over buffer so
// callers may push frames of any length; windows are always scored at a
// fixed size regardless of input chunking, grounded on
// original_source/src/segmenter.py's buffer-and-window-align protocol.
type Segmenter struct {
	model      VADModel
	sampleRate int
	win        int

	buffer    []float32 // carry-over, not yet window-aligned
	preBuffer [][]float32

	inSpeech    bool
	speechRun   int
	silenceRun  int
	utterance   []float32
}

// NewSegmenter builds a Segmenter scoring windows with model at
// sampleRate. sampleRate must be 8000 or 16000; any other rate is a
// programmer error surfaced here rather than producing silently
// misaligned windows, matching original_source/src/segmenter.py's
// ValueError for an unsupported rate.
func NewSegmenter(model VADModel, sampleRate int) (*Segmenter, error) {
	if sampleRate != 8000 && sampleRate != 16000 {
		return nil, fmt.Errorf("pipeline: unsupported sample rate %d (must be 8000 or 16000)", sampleRate)
	}
	return &Segmenter{
		model:      model,
		sampleRate: sampleRate,
		win:        windowSize(sampleRate),
	}, nil
}

// Push feeds one frame of samples into the segmenter, returning a
// completed Utterance if this frame's trailing silence ended one.
func (s *Segmenter) Push(frame AudioFrame) (*Utterance, error) {
	s.buffer = append(s.buffer, frame.Samples...)

	var result *Utterance
	for len(s.buffer) >= s.win {
		window := s.buffer[:s.win]
		s.buffer = s.buffer[s.win:]

		prob, err := s.model.Score(window, s.sampleRate)
		if err != nil {
			return nil, err
		}

		if u := s.step(window, prob > speechThreshold); u != nil {
			result = u
		}
	}
	return result, nil
}

// step advances the hysteresis state machine by one window and returns a
// completed Utterance if silence just ended a confirmed speech span.
func (s *Segmenter) step(window []float32, isSpeech bool) *Utterance {
	if !s.inSpeech {
		s.pushPreBuffer(window)

		if isSpeech {
			s.speechRun++
			s.silenceRun = 0
		} else {
			s.speechRun = 0
		}

		if s.speechRun >= minSpeechWindows {
			s.inSpeech = true
			s.speechRun = 0
			s.silenceRun = 0
			s.utterance = s.utterance[:0]
			for _, w := range s.preBuffer {
				s.utterance = append(s.utterance, w...)
			}
			s.preBuffer = nil
		}
		return nil
	}

	s.utterance = append(s.utterance, window...)

	if isSpeech {
		s.silenceRun = 0
	} else {
		s.silenceRun++
	}

	if s.silenceRun < silenceLimit {
		return nil
	}

	out := &Utterance{
		Samples:    s.utterance,
		SampleRate: s.sampleRate,
	}
	s.inSpeech = false
	s.silenceRun = 0
	s.speechRun = 0
	s.utterance = nil
	return out
}

func (s *Segmenter) pushPreBuffer(window []float32) {
	cp := make([]float32, len(window))
	copy(cp, window)
	s.preBuffer = append(s.preBuffer, cp)
	if len(s.preBuffer) > preSpeechBuffer {
		s.preBuffer = s.preBuffer[len(s.preBuffer)-preSpeechBuffer:]
	}
}
