package pipeline

import "testing"

// constModel always reports the same probability, letting tests drive the
// segmenter's hysteresis deterministically.
type constModel struct{ prob float64 }

func (c constModel) Score(_ []float32, _ int) (float64, error) { return c.prob, nil }

func windows(n, size int, fill float32) []float32 {
	out := make([]float32, n*size)
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestSegmenterRequiresHysteresisToStart(t *testing.T) {
	seg, err := NewSegmenter(constModel{prob: 1.0}, 16000)
	if err != nil {
		t.Fatal(err)
	}

	// One window of speech is not enough to confirm start.
	u, err := seg.Push(AudioFrame{Samples: windows(1, 512, 0.5)})
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Fatalf("expected no utterance yet")
	}
	if seg.inSpeech {
		t.Fatalf("expected not yet in speech")
	}
}

func TestSegmenterEmitsUtteranceAfterSilence(t *testing.T) {
	seg, err := NewSegmenter(constModel{prob: 1.0}, 16000)
	if err != nil {
		t.Fatal(err)
	}

	// Confirm speech start.
	_, err = seg.Push(AudioFrame{Samples: windows(minSpeechWindows, 512, 0.5)})
	if err != nil {
		t.Fatal(err)
	}
	if !seg.inSpeech {
		t.Fatalf("expected speech confirmed")
	}

	seg.model = constModel{prob: 0.0}
	var u *Utterance
	for i := 0; i < silenceLimit && u == nil; i++ {
		u, err = seg.Push(AudioFrame{Samples: windows(1, 512, 0.0)})
		if err != nil {
			t.Fatal(err)
		}
	}
	if u == nil {
		t.Fatalf("expected utterance after silence limit reached")
	}
	if seg.inSpeech {
		t.Fatalf("expected speech to have ended")
	}
}

func TestSegmenterCarriesOverPartialWindow(t *testing.T) {
	seg, err := NewSegmenter(constModel{prob: 0.0}, 16000)
	if err != nil {
		t.Fatal(err)
	}
	u, err := seg.Push(AudioFrame{Samples: make([]float32, 100)})
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Fatalf("expected no utterance from a sub-window frame")
	}
	if len(seg.buffer) != 100 {
		t.Fatalf("expected 100 samples carried over, got %d", len(seg.buffer))
	}
}

func TestNewSegmenterRejectsUnsupportedSampleRate(t *testing.T) {
	if _, err := NewSegmenter(constModel{prob: 0.0}, 44100); err == nil {
		t.Fatalf("expected an error for an unsupported sample rate")
	}
}
