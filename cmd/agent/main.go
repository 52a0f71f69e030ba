// Command agent runs the conversational pipeline against the local
// microphone and speakers, matching the teacher's cmd/agent demo but
// wired through the generalized six-stage pipeline instead of a single
// malgo duplex callback.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aspenagent/aspen/internal/config"
	"github.com/aspenagent/aspen/internal/logging"
	"github.com/aspenagent/aspen/pkg/pipeline"
	llmProvider "github.com/aspenagent/aspen/pkg/providers/llm"
	sttProvider "github.com/aspenagent/aspen/pkg/providers/stt"
	ttsProvider "github.com/aspenagent/aspen/pkg/providers/tts"
	"github.com/aspenagent/aspen/pkg/sink"
	"github.com/aspenagent/aspen/pkg/source"
)

func main() {
	start := time.Now()
	if err := godotenv.Load(); err != nil {
		log.Println("note: no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logging.New(cfg.General.LogLevel)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer zlog.Sync()

	asr := buildTranscriber(cfg.Transcriber)
	llm := buildResponder(cfg.Responder)
	tts := buildSynthesizer(cfg.Synthesizer)

	mic, err := source.NewLocalMicrophone(cfg.Microphone.SampleRate)
	if err != nil {
		log.Fatalf("microphone: %v", err)
	}
	defer mic.Close()

	speaker, err := sink.NewLocalSpeaker(cfg.Synthesizer.SampleRate)
	if err != nil {
		log.Fatalf("speaker: %v", err)
	}
	defer speaker.Close()
	speaker.SetEchoRecorder(mic)

	vad := pipeline.NewRMSVADModel()
	vad.Threshold = cfg.Segmenter.Threshold

	if warmer, ok := llm.(interface{ Warmup(context.Context) }); ok {
		warmer.Warmup(context.Background())
	}

	p, err := pipeline.New(mic, vad, cfg.Microphone.SampleRate, asr, llm, tts, speaker, zlog)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	p.InjectGreeting(cfg.General.InitialGreeting)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Printf("\naspen @ %.1fs: shutting down...\n", time.Since(start).Seconds())
		cancel()
	}()

	fmt.Printf("aspen @ %.1fs: started (stt=%s llm=%s tts=%s rate=%dHz)\n",
		time.Since(start).Seconds(), cfg.Transcriber.Provider, cfg.Responder.Provider,
		cfg.Synthesizer.Provider, cfg.Microphone.SampleRate)
	zlog.Info("agent started",
		"stt", cfg.Transcriber.Provider,
		"llm", cfg.Responder.Provider,
		"tts", cfg.Synthesizer.Provider,
		"sample_rate", cfg.Microphone.SampleRate,
	)

	p.Run(ctx)
}

func buildTranscriber(cfg config.TranscriberConfig) pipeline.Transcriber {
	switch cfg.Provider {
	case "openai":
		stt := sttProvider.NewOpenAISTT(cfg.APIKey, cfg.Model)
		stt.SetLanguage(cfg.Language)
		return stt
	case "deepgram":
		stt := sttProvider.NewDeepgramSTT(cfg.APIKey)
		stt.SetLanguage(cfg.Language)
		return stt
	case "assemblyai":
		stt := sttProvider.NewAssemblyAISTT(cfg.APIKey)
		stt.SetLanguage(cfg.Language)
		return stt
	case "groq":
		fallthrough
	default:
		stt := sttProvider.NewGroqSTT(cfg.APIKey, cfg.Model)
		stt.SetLanguage(cfg.Language)
		return stt
	}
}

func buildResponder(cfg config.ResponderConfig) pipeline.Responder {
	switch cfg.Provider {
	case "openai":
		return llmProvider.NewOpenAILLM(cfg.APIKey, cfg.Model)
	case "google":
		return llmProvider.NewGoogleLLM(cfg.APIKey, cfg.Model)
	case "groq":
		return llmProvider.NewGroqLLM(cfg.APIKey, cfg.Model)
	case "anthropic":
		fallthrough
	default:
		return llmProvider.NewAnthropicLLM(cfg.APIKey, cfg.Model)
	}
}

func buildSynthesizer(cfg config.SynthesizerConfig) pipeline.Synthesizer {
	switch cfg.Provider {
	case "google":
		tts, err := ttsProvider.NewGoogleTTS(context.Background())
		if err != nil {
			log.Fatalf("google tts: %v", err)
		}
		tts.SetVoice(cfg.VoiceLanguageCode, cfg.VoiceName)
		return tts
	case "lokutor":
		fallthrough
	default:
		tts := ttsProvider.NewLokutorTTS(cfg.APIKey)
		tts.SetLanguage(cfg.VoiceLanguageCode)
		return tts
	}
}
