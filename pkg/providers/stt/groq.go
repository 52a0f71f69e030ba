// Package stt provides Transcriber implementations, adapted from the
// teacher's pkg/providers/stt to consume a pipeline.Utterance (float32
// samples) instead of raw PCM bytes. Groq, OpenAI and AssemblyAI upload
// it as WAV; Deepgram posts the raw 16-bit PCM frames.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/aspenagent/aspen/pkg/audio"
	"github.com/aspenagent/aspen/pkg/pipeline"
)

// GroqSTT transcribes via Groq's OpenAI-compatible Whisper endpoint,
// retaining the teacher's three-retry budget at the TranscriberStage
// level (see pipeline.TranscriberStage).
type GroqSTT struct {
	apiKey   string
	url      string
	model    string
	language string
}

func NewGroqSTT(apiKey, model string) *GroqSTT {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &GroqSTT{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/audio/transcriptions",
		model:  model,
	}
}

// SetLanguage sets the ISO language hint passed to the API; empty lets
// the model auto-detect.
func (s *GroqSTT) SetLanguage(lang string) { s.language = lang }

func (s *GroqSTT) Transcribe(ctx context.Context, u pipeline.Utterance) (string, error) {
	wavData := audio.EncodeFloat32(u.Samples, u.SampleRate)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", s.model); err != nil {
		return "", err
	}
	if s.language != "" {
		if err := writer.WriteField("language", s.language); err != nil {
			return "", err
		}
	}

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(wavData)); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("groq stt error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Text, nil
}

func (s *GroqSTT) Name() string {
	return "groq-stt"
}
