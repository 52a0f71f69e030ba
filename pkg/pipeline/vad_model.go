package pipeline

import "math"

// VADModel scores one fixed-size window of mono float32 samples at the
// given sample rate, returning the probability [0, 1] that it contains
// speech. Implementations are pure and stateless; all hysteresis and
// buffering live in Segmenter. This mirrors the teacher's VADProvider
// interface, narrowed to a single scoring call per the streaming
// segmenter's window-at-a-time contract.
type VADModel interface {
	Score(window []float32, sampleRate int) (float64, error)
}

// RMSVADModel is a simple energy-threshold VADModel, adapted from the
// teacher's RMSVAD (pkg/orchestrator/vad.go) to operate on float32
// samples in [-1, 1] rather than 16-bit PCM bytes, so it can sit
// directly on a Source's output without a re-encode step.
type RMSVADModel struct {
	// Threshold is the RMS level above which a window counts as speech.
	Threshold float64
}

// NewRMSVADModel returns an RMSVADModel with a sensible default
// threshold, grounded on the teacher's RMSVAD defaults.
func NewRMSVADModel() *RMSVADModel {
	return &RMSVADModel{Threshold: 0.02}
}

// Score reports 1.0 if the window's RMS exceeds the threshold, 0.0
// otherwise. sampleRate is unused; the threshold is amplitude-based.
func (m *RMSVADModel) Score(window []float32, _ int) (float64, error) {
	if len(window) == 0 {
		return 0, nil
	}
	var sumSq float64
	for _, s := range window {
		sumSq += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSq / float64(len(window)))
	if rms > m.Threshold {
		return 1.0, nil
	}
	return 0.0, nil
}
