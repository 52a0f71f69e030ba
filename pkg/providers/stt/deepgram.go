package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aspenagent/aspen/pkg/audio"
	"github.com/aspenagent/aspen/pkg/pipeline"
)

// DeepgramSTT posts raw 16-bit PCM directly (no WAV wrapper, per
// Deepgram's raw-audio content-type convention).
type DeepgramSTT struct {
	apiKey   string
	url      string
	language string
}

func NewDeepgramSTT(apiKey string) *DeepgramSTT {
	return &DeepgramSTT{
		apiKey: apiKey,
		url:    "https://api.deepgram.com/v1/listen",
	}
}

func (s *DeepgramSTT) SetLanguage(lang string) { s.language = lang }

func (s *DeepgramSTT) Name() string {
	return "deepgram-stt"
}

func (s *DeepgramSTT) Transcribe(ctx context.Context, u pipeline.Utterance) (string, error) {
	endpoint, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}

	params := endpoint.Query()
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	if s.language != "" {
		params.Set("language", s.language)
	}
	endpoint.RawQuery = params.Encode()

	pcm := pcm16(u.Samples)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint.String(), bytes.NewReader(pcm))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d; channels=1", u.SampleRate))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("deepgram error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return result.Results.Channels[0].Alternatives[0].Transcript, nil
}

func pcm16(samples []float32) []byte {
	wav := audio.EncodeFloat32(samples, 0)
	return wav[44:] // strip the RIFF header, Deepgram wants the raw frames
}
