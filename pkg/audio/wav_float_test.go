package audio

import "testing"

func TestEncodeDecodeFloat32RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	wav := EncodeFloat32(samples, 16000)

	decoded, rate, err := DecodeWav(wav)
	if err != nil {
		t.Fatalf("DecodeWav failed: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		diff := decoded[i] - samples[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.01 {
			t.Fatalf("sample %d: expected ~%v, got %v", i, samples[i], decoded[i])
		}
	}
}
