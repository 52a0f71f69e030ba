package source

import (
	"math"
	"sync"
	"time"
)

// echoSuppressor filters speaker bleed-through out of microphone capture on
// full-duplex local hardware: it keeps a rolling buffer of recently played
// samples and mutes microphone frames that correlate highly against it,
// so the bot's own voice never gets mistaken for a user barge-in.
type echoSuppressor struct {
	mu         sync.Mutex
	played     []float32
	maxBuf     int
	threshold  float64
	silenceFor time.Duration
	lastPlayed time.Time
	enabled    bool
}

func newEchoSuppressor(sampleRate int) *echoSuppressor {
	return &echoSuppressor{
		maxBuf:     sampleRate * 2, // ~2s of reference audio
		threshold:  0.55,
		silenceFor: 1200 * time.Millisecond,
		enabled:    true,
	}
}

// recordPlayed appends samples just sent to the speaker to the reference
// buffer, called by LocalSpeaker on every Play.
func (es *echoSuppressor) recordPlayed(samples []float32) {
	if !es.enabled || len(samples) == 0 {
		return
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	es.played = append(es.played, samples...)
	es.lastPlayed = time.Now()

	if len(es.played) > es.maxBuf {
		es.played = append([]float32(nil), es.played[len(es.played)-es.maxBuf:]...)
	}
}

// filter mutes the portion of frame that best correlates with recently
// played audio, leaving genuine microphone input untouched. It returns the
// frame unmodified once no playback happened recently.
func (es *echoSuppressor) filter(frame []float32) []float32 {
	es.mu.Lock()
	if !es.enabled || time.Since(es.lastPlayed) > es.silenceFor || len(es.played) == 0 {
		es.mu.Unlock()
		return frame
	}
	ref := append([]float32(nil), es.played...)
	threshold := es.threshold
	es.mu.Unlock()

	compareLen := len(frame)
	if compareLen > len(ref) {
		compareLen = len(ref)
	}
	if compareLen == 0 {
		return frame
	}

	inEnergy := energy(frame[:compareLen])
	if inEnergy == 0 {
		return frame
	}

	stride := compareLen / 4
	if stride < 8 {
		stride = 8
	}

	maxCorr := 0.0
	searchRange := len(ref) - compareLen + 1
	for pos := 0; pos < searchRange; pos += stride {
		seg := ref[pos : pos+compareLen]
		segEnergy := energy(seg)
		if segEnergy == 0 {
			continue
		}
		var dot float64
		for i := 0; i < compareLen; i++ {
			dot += float64(frame[i]) * float64(seg[i])
		}
		corr := dot / math.Sqrt(inEnergy*segEnergy)
		if corr > maxCorr {
			maxCorr = corr
			if maxCorr >= 0.999 {
				break
			}
		}
	}

	if maxCorr < threshold {
		return frame
	}

	out := make([]float32, len(frame))
	copy(out[compareLen:], frame[compareLen:])
	return out
}

func energy(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return sum
}

// clear drops the reference buffer, called when playback is interrupted so
// stale echo isn't matched against audio that will never finish playing.
func (es *echoSuppressor) clear() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.played = nil
}

func (es *echoSuppressor) setThreshold(threshold float64) {
	if threshold < 0 || threshold > 1 {
		return
	}
	es.mu.Lock()
	es.threshold = threshold
	es.mu.Unlock()
}

func (es *echoSuppressor) setEnabled(enabled bool) {
	es.mu.Lock()
	es.enabled = enabled
	es.mu.Unlock()
}
