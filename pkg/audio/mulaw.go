package audio

import "github.com/zaf/g711"

// DecodeMuLaw decodes 8-bit mu-law bytes (Twilio Media Streams' wire
// codec) to mono float32 samples in [-1, 1], grounded on
// original_source/src/tw_incoming.py's use of g711.decode_ulaw.
func DecodeMuLaw(payload []byte) []float32 {
	pcm := g711.DecodeUlaw(payload)
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		samples[i] = float32(v) / 32768
	}
	return samples
}

// EncodeMuLaw converts mono float32 samples in [-1, 1] to 8-bit mu-law
// bytes, grounded on original_source/src/tw_outgoing.py's use of
// g711.encode_ulaw on its outbound leg. Samples whose peak exceeds 1 are
// scaled down by that peak rather than clipped per-sample, matching
// tw_outgoing.py's `audio /= np.max(np.abs(audio))` normalization.
func EncodeMuLaw(samples []float32) []byte {
	peak := float32(1)
	for _, s := range samples {
		a := s
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16((s / peak) * 32767)
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	return g711.EncodeUlaw(pcm)
}
