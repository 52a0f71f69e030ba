package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakeTranscriber struct{ text string }

func (f fakeTranscriber) Transcribe(context.Context, Utterance) (string, error) {
	return f.text, nil
}

func TestTranscriberStageEmitsTranscript(t *testing.T) {
	in := NewQueue[Utterance]()
	out := NewQueue[Transcript]()
	flags := NewFlags()
	stage := NewTranscriberStage(fakeTranscriber{text: "hello"}, in, out, flags, NoOpLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go stage.Run(ctx)
	defer cancel()

	in.Push(Utterance{SampleRate: 16000})
	got, ok := out.Pop(time.Second)
	if !ok || got.Text != "hello" {
		t.Fatalf("expected transcript %q, got %+v ok=%v", "hello", got, ok)
	}
	flags.SetExit()
}

type fakeResponder struct{ tokens []string }

func (f fakeResponder) Respond(_ context.Context, _ []Turn, emit TokenSink) error {
	for _, tok := range f.tokens {
		emit(tok)
	}
	return nil
}

func TestResponderStageSplitsSentences(t *testing.T) {
	in := NewQueue[Transcript]()
	out := NewQueue[Sentence]()
	flags := NewFlags()
	conv := NewConversation()
	stage := NewResponderStage(fakeResponder{tokens: []string{"Hi there. ", "Bye now."}}, conv, in, out, flags, NoOpLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go stage.Run(ctx)
	defer cancel()

	in.Push(Transcript{Text: "hello"})

	first, ok := out.Pop(time.Second)
	if !ok || first.Text != "Hi there." {
		t.Fatalf("unexpected first sentence: %+v ok=%v", first, ok)
	}
	second, ok := out.Pop(time.Second)
	if !ok || second.Text != "Bye now." {
		t.Fatalf("unexpected second sentence: %+v ok=%v", second, ok)
	}
	flags.SetExit()
}

func TestResponderStageAbortsOnBargeIn(t *testing.T) {
	in := NewQueue[Transcript]()
	out := NewQueue[Sentence]()
	flags := NewFlags()
	conv := NewConversation()
	stage := NewResponderStage(fakeResponder{tokens: []string{"will not be queued. "}}, conv, in, out, flags, NoOpLogger{})

	flags.SetSpeaking(true)
	ctx, cancel := context.WithCancel(context.Background())
	go stage.Run(ctx)
	defer cancel()

	in.Push(Transcript{Text: "hello"})
	if _, ok := out.Pop(200 * time.Millisecond); ok {
		t.Fatalf("expected no sentence while speaking flag is set")
	}
	flags.SetExit()
}

type fakeSynth struct{}

func (fakeSynth) Synthesize(context.Context, string) ([]float32, int, error) {
	return make([]float32, 16000), 16000, nil
}

func TestSynthesizerStageProducesClip(t *testing.T) {
	in := NewQueue[Sentence]()
	out := NewQueue[SynthClip]()
	flags := NewFlags()
	stage := NewSynthesizerStage(fakeSynth{}, in, out, flags, NoOpLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go stage.Run(ctx)
	defer cancel()

	in.Push(Sentence{Text: "hi"})
	clip, ok := out.Pop(time.Second)
	if !ok || clip.Text != "hi" || len(clip.Samples) != 16000 {
		t.Fatalf("unexpected clip: %+v ok=%v", clip, ok)
	}
	flags.SetExit()
}

type fakePlayer struct{ interrupted bool }

func (f *fakePlayer) Play(context.Context, []float32, int) error { return nil }
func (f *fakePlayer) Wait(context.Context) error                 { return nil }
func (f *fakePlayer) Interrupt()                                 { f.interrupted = true }

func TestSinkStagePlaysWords(t *testing.T) {
	in := NewQueue[SynthClip]()
	flags := NewFlags()
	conv := NewConversation()
	player := &fakePlayer{}
	stage := NewSinkStage(player, conv, in, flags, NoOpLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go stage.Run(ctx)
	defer cancel()

	in.Push(SynthClip{Text: "hi there", Samples: make([]float32, 1600), SampleRate: 16000})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(conv.Turns()) == 1 && conv.Turns()[0].Text == "hi there" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	turns := conv.Turns()
	if len(turns) != 1 || turns[0].Text != "hi there" {
		t.Fatalf("expected conversation to accumulate %q, got %+v", "hi there", turns)
	}
	flags.SetExit()
}

func TestSinkStageDropsWordInterruptedByBargeIn(t *testing.T) {
	in := NewQueue[SynthClip]()
	flags := NewFlags()
	conv := NewConversation()
	player := &fakePlayer{}
	stage := NewSinkStage(player, conv, in, flags, NoOpLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go stage.Run(ctx)
	defer cancel()

	// 5 words over 500ms gives 100ms per word, long enough to reliably
	// interrupt after exactly 3 have been appended.
	in.Push(SynthClip{Text: "one two three four five", Samples: make([]float32, 8000), SampleRate: 16000})

	// Same-role words collapse into a single assistant turn, so progress is
	// measured in words within that turn.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if turns := conv.Turns(); len(turns) == 1 && len(strings.Fields(turns[0].Text)) >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	flags.SetSpeaking(true)
	time.Sleep(200 * time.Millisecond)
	flags.SetExit()

	turns := conv.Turns()
	if len(turns) != 1 || turns[0].Text != "one two three" {
		t.Fatalf("expected exactly 3 words appended before the barge-in, got %+v", turns)
	}
	if !player.interrupted {
		t.Fatalf("expected playback to have been interrupted")
	}
}
