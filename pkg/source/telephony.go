package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aspenagent/aspen/pkg/audio"
	"github.com/aspenagent/aspen/pkg/pipeline"
	"github.com/coder/websocket"
)

// twilioEvent is the envelope Twilio Media Streams sends on the inbound
// websocket leg, grounded on original_source/src/tw_incoming.py's
// start/media/stop handling.
type twilioEvent struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
	Media     struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// TelephonyInbound reads a Twilio Media Streams websocket connection,
// decodes each base64 mu-law payload, and pushes decoded frames for
// segmentation. It records the stream's streamSid once the "start"
// event arrives so an outbound leg sharing the same connection can
// address "clear" control frames to it.
type TelephonyInbound struct {
	conn       *websocket.Conn
	frames     *pipeline.Queue[pipeline.AudioFrame]
	streamSid  chan string
	sidEmitted bool
}

// NewTelephonyInbound wraps an already-accepted websocket connection.
func NewTelephonyInbound(conn *websocket.Conn) *TelephonyInbound {
	return &TelephonyInbound{
		conn:      conn,
		frames:    pipeline.NewQueue[pipeline.AudioFrame](),
		streamSid: make(chan string, 1),
	}
}

// Frames implements pipeline.Source.
func (t *TelephonyInbound) Frames() *pipeline.Queue[pipeline.AudioFrame] {
	return t.frames
}

// StreamSid blocks until the "start" event has been observed and
// returns its streamSid.
func (t *TelephonyInbound) StreamSid(ctx context.Context) (string, error) {
	select {
	case sid := <-t.streamSid:
		return sid, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run reads events until the connection closes or ctx is done, matching
// the original implementation's rule that any receive error ends the
// call (original_source/src/tw_incoming.py sets exit_event on any recv
// exception).
func (t *TelephonyInbound) Run(ctx context.Context, flags *pipeline.Flags) error {
	defer flags.SetExit()

	for {
		_, data, err := t.conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("telephony inbound read: %w", err)
		}

		var ev twilioEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		switch ev.Event {
		case "start":
			if !t.sidEmitted {
				t.streamSid <- ev.StreamSid
				t.sidEmitted = true
			}
		case "media":
			raw, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
			if err != nil {
				continue
			}
			samples := audio.DecodeMuLaw(raw)
			t.frames.Push(pipeline.AudioFrame{Samples: samples})
		case "stop":
			return nil
		}
	}
}
