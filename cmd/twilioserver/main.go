// Command twilioserver exposes the conversational pipeline over Twilio
// Media Streams: one webhook answers incoming calls with TwiML, and one
// websocket path carries bidirectional mu-law audio per call leg.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
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
	"github.com/aspenagent/aspen/pkg/telephony"
)

const telephonySampleRate = 8000

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

	streamURL := fmt.Sprintf("wss://%s/stream", cfg.General.TwilioHost)

	newPipeline := func(flags *pipeline.Flags, in *source.TelephonyInbound, out *sink.TelephonyOutbound) *pipeline.Pipeline {
		asr := buildTranscriber(cfg.Transcriber)
		llm := buildResponder(cfg.Responder)
		tts := buildSynthesizer(cfg.Synthesizer)
		vad := pipeline.NewRMSVADModel()
		vad.Threshold = cfg.Segmenter.Threshold

		if warmer, ok := llm.(interface{ Warmup(context.Context) }); ok {
			warmer.Warmup(context.Background())
		}

		p, err := pipeline.NewWithFlags(flags, in, vad, telephonySampleRate, asr, llm, tts, out, zlog)
		if err != nil {
			zlog.Error("pipeline", "error", err)
			return nil
		}
		p.InjectGreeting(cfg.General.InitialGreeting)
		return p
	}

	server := telephony.NewServer(streamURL, newPipeline)

	addr := fmt.Sprintf("%s:%d", cfg.General.TwilioHost, cfg.General.TwilioPort)
	fmt.Printf("aspen @ %.1fs: listening on %s (stream_url=%s)\n", time.Since(start).Seconds(), addr, streamURL)
	zlog.Info("twilio server listening", "addr", addr, "stream_url", streamURL)

	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("server: %v", err)
	}
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
	tts := ttsProvider.NewLokutorTTS(cfg.APIKey)
	tts.SetLanguage(cfg.VoiceLanguageCode)
	return tts
}
