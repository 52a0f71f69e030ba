package pipeline

import (
	"context"
	"sync"
	"time"
)

// Source produces raw AudioFrames for the pipeline to segment, e.g. a
// local microphone or a telephony call leg's inbound media stream.
type Source interface {
	Frames() *Queue[AudioFrame]
}

// Pipeline wires the six stages together: Source -> Segmenter ->
// Transcriber -> Responder -> Synthesizer -> Sink, plus the shared
// Conversation and Flags every stage reads and mutates. Wiring mirrors
// the teacher's cmd/agent/main.go channel plumbing, generalized from a
// single malgo duplex device to any Source/AudioPlayer pair.
type Pipeline struct {
	Conversation *Conversation
	Flags        *Flags

	segmenter   *SegmenterStage
	transcriber *TranscriberStage
	responder   *ResponderStage
	synth       *SynthesizerStage
	sink        *SinkStage

	sentences *Queue[Sentence]
}

// New assembles a Pipeline from one implementation of each stage
// collaborator, with a freshly allocated Flags.
func New(src Source, vad VADModel, sampleRate int, asr Transcriber, llm Responder, tts Synthesizer, player AudioPlayer, log Logger) (*Pipeline, error) {
	return NewWithFlags(NewFlags(), src, vad, sampleRate, asr, llm, tts, player, log)
}

// NewWithFlags is like New but shares an externally owned Flags, so a
// caller that already has another goroutine observing the same
// speaking/exit signals (e.g. a telephony inbound reader that must set
// exit on disconnect) can bind it to this pipeline's stages.
func NewWithFlags(flags *Flags, src Source, vad VADModel, sampleRate int, asr Transcriber, llm Responder, tts Synthesizer, player AudioPlayer, log Logger) (*Pipeline, error) {
	if log == nil {
		log = NoOpLogger{}
	}

	seg, err := NewSegmenter(vad, sampleRate)
	if err != nil {
		return nil, err
	}

	conv := NewConversation()

	utterances := NewQueue[Utterance]()
	transcripts := NewQueue[Transcript]()
	sentences := NewQueue[Sentence]()
	clips := NewQueue[SynthClip]()

	return &Pipeline{
		Conversation: conv,
		Flags:        flags,
		segmenter:    NewSegmenterStage(seg, src.Frames(), utterances, flags, log),
		transcriber:  NewTranscriberStage(asr, utterances, transcripts, flags, log),
		responder:    NewResponderStage(llm, conv, transcripts, sentences, flags, log),
		synth:        NewSynthesizerStage(tts, sentences, clips, flags, log),
		sink:         NewSinkStage(player, conv, clips, flags, log),
		sentences:    sentences,
	}, nil
}

// Run starts every stage loop as a goroutine and blocks until ctx is
// done or Stop is called, then waits for every stage to observe the
// exit flag before returning.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup
	stages := []func(context.Context){
		p.segmenter.Run,
		p.transcriber.Run,
		p.responder.Run,
		p.synth.Run,
		p.sink.Run,
	}

	for _, run := range stages {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}

	for ctx.Err() == nil && !p.Flags.Exit() {
		select {
		case <-ctx.Done():
		case <-time.After(pollInterval):
		}
	}
	p.Flags.SetExit()
	wg.Wait()
}

// Stop signals every stage to exit at the next poll.
func (p *Pipeline) Stop() {
	p.Flags.SetExit()
}

// InjectGreeting seeds an opening assistant line directly into the
// synthesis queue, bypassing the responder, matching the original
// implementation's pattern of priming response_queue with a greeting
// before any user turn exists.
func (p *Pipeline) InjectGreeting(text string) {
	splitter := NewSentenceSplitter()
	sentences := splitter.Add(text)
	sentences = append(sentences, splitter.Flush()...)
	for _, s := range sentences {
		p.sentences.Push(s)
	}
}
