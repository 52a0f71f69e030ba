package sink

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/aspenagent/aspen/pkg/audio"
	"github.com/aspenagent/aspen/pkg/pipeline"
	"github.com/coder/websocket"
)

// telephonyOutboundFrame matches Twilio Media Streams' outbound media
// envelope.
type telephonyOutboundFrame struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
	Media     *struct {
		Payload string `json:"payload"`
	} `json:"media,omitempty"`
}

// telephonyUpdateInterval is how often PlayWithAccounting advances its
// word queue against the wall clock and checks for a barge-in.
const telephonyUpdateInterval = 50 * time.Millisecond

// wordEntry is one queued word and how much of its estimated spoken
// duration has not yet elapsed, grounded on
// original_source/src/tw_outgoing.py's WordQueue entries.
type wordEntry struct {
	word      string
	remaining time.Duration
}

// TelephonyOutbound streams synthesized audio out over a Twilio Media
// Streams websocket leg as mu-law frames eagerly (Play sends the whole
// clip the moment it is ready), and separately tracks how much of it
// Twilio has likely played out word-by-word against a wall clock,
// grounded on original_source/src/tw_outgoing.py's WordQueue/update. A
// "clear" control frame on Interrupt makes Twilio drop whatever it has
// already buffered.
type TelephonyOutbound struct {
	conn      *websocket.Conn
	streamSid string

	mu         sync.Mutex
	queue      []wordEntry
	lastUpdate time.Time
}

// NewTelephonyOutbound wraps an already-accepted websocket connection
// bound to streamSid.
func NewTelephonyOutbound(conn *websocket.Conn, streamSid string) *TelephonyOutbound {
	return &TelephonyOutbound{conn: conn, streamSid: streamSid}
}

// Play implements pipeline.AudioPlayer, sending the clip as a mu-law
// media frame. sampleRate is unused: Twilio's wire format is fixed at
// 8kHz mu-law. Callers that need word-level transcript accounting
// should use PlayWithAccounting instead; SinkStage prefers it
// automatically when available.
func (t *TelephonyOutbound) Play(ctx context.Context, samples []float32, _ int) error {
	return t.sendMedia(ctx, samples)
}

// Wait implements pipeline.AudioPlayer. Twilio acknowledges media
// frames on receipt, not on playout, so there is nothing to block on
// beyond the send itself.
func (t *TelephonyOutbound) Wait(ctx context.Context) error {
	return nil
}

// PlayWithAccounting sends clip eagerly, then queues its words with an
// estimated duration of (clip duration / word count) each and advances
// that queue against the wall clock every telephonyUpdateInterval,
// appending a word to conv only once its queued duration has fully
// elapsed. A barge-in mid-clip purges whatever is left unconsumed
// rather than appending it, matching tw_outgoing.py's clear().
func (t *TelephonyOutbound) PlayWithAccounting(ctx context.Context, clip pipeline.SynthClip, conv *pipeline.Conversation, flags *pipeline.Flags) error {
	if err := t.sendMedia(ctx, clip.Samples); err != nil {
		return err
	}

	words := strings.Fields(clip.Text)
	if len(words) == 0 {
		return nil
	}
	duration := time.Duration(len(clip.Samples)) * time.Second / time.Duration(clip.SampleRate)
	perWord := duration / time.Duration(len(words))

	t.mu.Lock()
	for _, w := range words {
		t.queue = append(t.queue, wordEntry{word: w, remaining: perWord})
	}
	t.lastUpdate = time.Now()
	t.mu.Unlock()

	ticker := time.NewTicker(telephonyUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if flags.Speaking() {
				t.Interrupt()
				return nil
			}

			t.mu.Lock()
			elapsed := now.Sub(t.lastUpdate)
			t.lastUpdate = now
			t.advanceLocked(elapsed, conv)
			empty := len(t.queue) == 0
			t.mu.Unlock()

			if empty {
				return nil
			}
		}
	}
}

// advanceLocked consumes elapsed wall-clock time from the front of the
// queue, appending each word whose remaining duration is fully spent
// and carrying any leftover elapsed time into the next entry. A word
// only partially spoken stays at the head of the queue with its
// remaining duration reduced, rather than being appended early.
func (t *TelephonyOutbound) advanceLocked(elapsed time.Duration, conv *pipeline.Conversation) {
	for elapsed > 0 && len(t.queue) > 0 {
		front := &t.queue[0]
		if front.remaining > elapsed {
			front.remaining -= elapsed
			return
		}
		elapsed -= front.remaining
		conv.Append(pipeline.RoleAssistant, front.word)
		t.queue = t.queue[1:]
	}
}

func (t *TelephonyOutbound) sendMedia(ctx context.Context, samples []float32) error {
	payload := base64.StdEncoding.EncodeToString(audio.EncodeMuLaw(samples))
	frame := telephonyOutboundFrame{
		Event:     "media",
		StreamSid: t.streamSid,
		Media:     &struct{ Payload string `json:"payload"` }{Payload: payload},
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return t.conn.Write(ctx, websocket.MessageText, data)
}

// Interrupt sends Twilio's "clear" control frame, discarding whatever
// audio it has buffered for playback, and purges any unconsumed words
// still queued so they are never appended to the transcript.
func (t *TelephonyOutbound) Interrupt() {
	t.mu.Lock()
	t.queue = nil
	t.mu.Unlock()

	frame := telephonyOutboundFrame{Event: "clear", StreamSid: t.streamSid}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = t.conn.Write(context.Background(), websocket.MessageText, data)
}
