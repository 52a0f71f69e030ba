package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/aspenagent/aspen/pkg/audio"
)

// GoogleTTS synthesizes via Cloud Text-to-Speech, requesting LINEAR16
// output and decoding it back to float32, grounded on
// original_source/src/synthesizer.py's VoiceSelectionParams +
// AudioConfig(LINEAR16) construction.
type GoogleTTS struct {
	client       *texttospeech.Client
	languageCode string
	voiceName    string
	sampleRate   int32
}

// NewGoogleTTS builds a client using Application Default Credentials
// (service-account JSON via GOOGLE_APPLICATION_CREDENTIALS), matching
// how the original implementation loads its service-account file.
func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("google tts client: %w", err)
	}
	return &GoogleTTS{
		client:       client,
		languageCode: "en-US",
		voiceName:    "en-US-Neural2-C",
		sampleRate:   24000,
	}, nil
}

// SetVoice overrides the language code and voice name used on every
// request.
func (g *GoogleTTS) SetVoice(languageCode, voiceName string) {
	g.languageCode = languageCode
	g.voiceName = voiceName
}

// Synthesize implements pipeline.Synthesizer.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.languageCode,
			Name:         g.voiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: g.sampleRate,
		},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("google tts synthesize: %w", err)
	}

	samples, rate, err := audio.DecodeWav(resp.AudioContent)
	if err != nil {
		return nil, 0, fmt.Errorf("google tts decode: %w", err)
	}
	return samples, rate, nil
}

func (g *GoogleTTS) Name() string { return "google-tts" }

// Close releases the underlying gRPC connection.
func (g *GoogleTTS) Close() error { return g.client.Close() }
