package telephony

import (
	"net/http"

	"github.com/aspenagent/aspen/pkg/pipeline"
	"github.com/aspenagent/aspen/pkg/sink"
	"github.com/aspenagent/aspen/pkg/source"
	"github.com/coder/websocket"
)

// PipelineFactory builds a fresh Pipeline wired to inbound/outbound for
// one call leg, sharing flags with the inbound reader so a dropped
// connection reliably stops every stage.
type PipelineFactory func(flags *pipeline.Flags, in *source.TelephonyInbound, out *sink.TelephonyOutbound) *pipeline.Pipeline

// Server is the Twilio-facing HTTP front end: one webhook path returns
// TwiML pointing back at the stream path, and the stream path upgrades
// to a Media Streams websocket per call.
//
// The original implementation multiplexed both concerns over one raw
// socket and tracked closed connection IDs in a shared set so the
// HTTP-request branch could bail out once a path had already been
// claimed by the websocket branch (original_source/src/main_twilio.py's
// CLOSED_IDS). net/http's mux already separates the two paths, so that
// bookkeeping collapses into shouldUpgrade's explicit return value: no
// shared mutable set is needed.
type Server struct {
	StreamURL string
	NewPipeline PipelineFactory
}

// NewServer builds a Server that points TwiML at streamURL and spawns a
// pipeline via newPipeline for each accepted stream.
func NewServer(streamURL string, newPipeline PipelineFactory) *Server {
	return &Server{StreamURL: streamURL, NewPipeline: newPipeline}
}

// Handler returns the mux serving /incoming-call and /stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/incoming-call", s.handleIncomingCall)
	mux.HandleFunc("/stream", s.handleStream)
	return mux
}

func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	if !shouldUpgrade(r) {
		if err := WriteIncomingCall(w, s.StreamURL); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !shouldUpgrade(r) {
		http.NotFound(w, r)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	in := source.NewTelephonyInbound(conn)
	flags := pipeline.NewFlags()
	go in.Run(ctx, flags)

	sid, err := in.StreamSid(ctx)
	if err != nil {
		return
	}

	out := sink.NewTelephonyOutbound(conn, sid)
	p := s.NewPipeline(flags, in, out)
	if p == nil {
		return
	}
	p.Run(ctx)
}

// shouldUpgrade reports whether r is a websocket upgrade request. The
// webhook path must only ever see a plain POST; the stream path must
// only ever see an upgrade. Either branch seeing the wrong kind of
// request returns false here rather than attempting to serve it.
func shouldUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") == "websocket"
}
