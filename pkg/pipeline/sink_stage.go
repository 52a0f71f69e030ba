package pipeline

import (
	"context"
	"strings"
	"time"
)

// AudioPlayer renders synthesized audio to whatever output device a Sink
// implementation targets (speaker, telephony call leg). Play queues the
// clip and returns promptly, matching original_source/src/speaker.py's
// non-blocking sd.play(...); Wait blocks until that queued clip has
// finished playing (speaker.py's sd.wait()), so the stage can run its
// per-word accounting loop concurrently with actual playback instead of
// after it. Interrupt stops whatever is currently playing, matching the
// telephony leg's "clear" control frame and the local leg's stream abort.
type AudioPlayer interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
	Wait(ctx context.Context) error
	Interrupt()
}

// SelfAccountingPlayer is implemented by players whose playout position
// cannot be inferred from "pace words evenly across clip duration" on
// this side of the wire: the telephony leg sends audio eagerly and the
// far end (Twilio) plays it out on its own schedule, so it must track
// word-by-word progress itself against a wall clock rather than by
// sleeping perWord between appends. When the player implements this,
// SinkStage hands it the clip, Conversation, and Flags directly instead
// of running its own generic word loop.
type SelfAccountingPlayer interface {
	AudioPlayer
	PlayWithAccounting(ctx context.Context, clip SynthClip, conv *Conversation, flags *Flags) error
}

// SinkStage plays each SynthClip and appends its text to the
// conversation word-by-word as playback progresses, so a mid-sentence
// barge-in leaves the transcript reflecting only what was actually
// heard. Grounded on original_source/src/speaker.py's per-word
// speaking_event.wait(word_duration) loop.
type SinkStage struct {
	player AudioPlayer
	conv   *Conversation
	in     *Queue[SynthClip]
	flags  *Flags
	log    Logger
}

// NewSinkStage wires player and conv to drain in.
func NewSinkStage(player AudioPlayer, conv *Conversation, in *Queue[SynthClip], flags *Flags, log Logger) *SinkStage {
	return &SinkStage{player: player, conv: conv, in: in, flags: flags, log: log}
}

// Run plays clips until the exit flag is set.
func (s *SinkStage) Run(ctx context.Context) {
	for !s.flags.Exit() {
		clip, ok := s.in.Pop(pollInterval)
		if !ok {
			continue
		}
		if s.flags.Speaking() {
			continue // superseded by a barge-in before it could play
		}
		s.playClip(ctx, clip)
	}
}

func (s *SinkStage) playClip(ctx context.Context, clip SynthClip) {
	if sa, ok := s.player.(SelfAccountingPlayer); ok {
		if err := sa.PlayWithAccounting(ctx, clip, s.conv, s.flags); err != nil {
			s.log.Error("playback failed", "error", err)
		}
		return
	}

	if err := s.player.Play(ctx, clip.Samples, clip.SampleRate); err != nil {
		s.log.Error("playback failed", "error", err)
		return
	}

	words := strings.Fields(clip.Text)
	if len(words) == 0 {
		s.player.Wait(ctx)
		return
	}
	duration := time.Duration(len(clip.Samples)) * time.Second / time.Duration(clip.SampleRate)
	perWord := duration / time.Duration(len(words))

	for _, w := range words {
		if s.flags.Speaking() {
			s.player.Interrupt()
			return
		}
		if waitFlag(s.flags.Speaking, perWord) {
			s.player.Interrupt()
			return
		}
		s.conv.Append(RoleAssistant, w)
	}

	s.player.Wait(ctx)
}
