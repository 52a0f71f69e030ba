// Package telephony handles the Twilio-facing HTTP/websocket front end:
// TwiML generation for the inbound call webhook and the media-stream
// websocket upgrade, grounded on original_source/src/main_twilio.py.
package telephony

import (
	"fmt"
	"net/http"

	twiml "github.com/twilio/twilio-go/twiml"
)

// IncomingCallTwiML builds the TwiML response that connects an inbound
// call to streamURL over a bidirectional Media Stream, matching the
// original's VoiceResponse + Connect + Stream construction.
func IncomingCallTwiML(streamURL string) (string, error) {
	stream := &twiml.VoiceStream{Url: streamURL}
	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	return twiml.Voice([]twiml.Element{connect})
}

// WriteIncomingCall writes the TwiML response for the /incoming-call
// webhook directly to w.
func WriteIncomingCall(w http.ResponseWriter, streamURL string) error {
	doc, err := IncomingCallTwiML(streamURL)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/xml")
	_, err = fmt.Fprint(w, doc)
	return err
}
