// Package tts provides Synthesizer implementations: a persistent
// websocket client for Lokutor and a Google Cloud Text-to-Speech client,
// both adapted to the pipeline's Synthesizer interface (text in, mono
// float32 PCM out) instead of returning raw provider-native bytes.
package tts

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// lokutorSampleRate is the fixed PCM16 output rate of Lokutor's
// synthesis endpoint.
const lokutorSampleRate = 24000

// LokutorTTS keeps one persistent websocket connection open across
// calls, matching the teacher's connection-reuse pattern.
type LokutorTTS struct {
	apiKey string
	host   string
	scheme string
	voice  string
	lang   string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewLokutorTTS(apiKey string) *LokutorTTS {
	return &LokutorTTS{
		apiKey: apiKey,
		host:   "api.lokutor.com",
		scheme: "wss",
		voice:  "f1",
		lang:   "en",
	}
}

// SetVoice/SetLanguage override the defaults used on every request.
func (t *LokutorTTS) SetVoice(voice string)   { t.voice = voice }
func (t *LokutorTTS) SetLanguage(lang string) { t.lang = lang }

func (t *LokutorTTS) getConn(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	u := url.URL{Scheme: t.scheme, Host: t.host, Path: "/ws", RawQuery: "api_key=" + t.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lokutor: %w", err)
	}

	t.conn = conn
	return conn, nil
}

// Synthesize implements pipeline.Synthesizer, decoding the aggregated
// PCM16 stream into mono float32 samples.
func (t *LokutorTTS) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	var pcm []byte
	err := t.StreamSynthesize(ctx, text, func(chunk []byte) error {
		pcm = append(pcm, chunk...)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		samples[i] = float32(v) / 32768
	}
	return samples, lokutorSampleRate, nil
}

// StreamSynthesize sends a synthesis request and invokes onChunk for
// each binary frame received, until an "EOS" text frame closes the
// stream.
func (t *LokutorTTS) StreamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	req := map[string]interface{}{
		"text":    text,
		"voice":   t.voice,
		"lang":    t.lang,
		"speed":   1.05,
		"steps":   5,
		"version": "versa-1.0",
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write json")
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read")
			return fmt.Errorf("failed to read from lokutor: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if len(msg) >= 4 && msg[:4] == "ERR:" {
				return fmt.Errorf("lokutor error: %s", msg)
			}
		}
	}
}

func (t *LokutorTTS) Name() string {
	return "lokutor"
}

func (t *LokutorTTS) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}
