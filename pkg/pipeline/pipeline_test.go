package pipeline

import (
	"context"
	"testing"
	"time"
)

type staticSource struct{ q *Queue[AudioFrame] }

func (s staticSource) Frames() *Queue[AudioFrame] { return s.q }

func TestPipelineInjectGreeting(t *testing.T) {
	p, err := New(
		staticSource{q: NewQueue[AudioFrame]()},
		constModel{prob: 0},
		16000,
		fakeTranscriber{},
		fakeResponder{},
		fakeSynth{},
		&fakePlayer{},
		NoOpLogger{},
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	defer cancel()

	p.InjectGreeting("Hello! How can I help?")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(p.Conversation.Turns()) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	turns := p.Conversation.Turns()
	if len(turns) == 0 {
		t.Fatalf("expected greeting to produce conversation turns")
	}
	p.Stop()
}
