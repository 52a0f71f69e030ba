package config

import (
	"os"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("TRANSCRIBER__API_KEY", "stt-key")
	os.Setenv("RESPONDER__API_KEY", "llm-key")
	os.Setenv("SYNTHESIZER__API_KEY", "tts-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Microphone.SampleRate != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Microphone.SampleRate)
	}
	if cfg.Transcriber.Provider != "groq" {
		t.Errorf("expected default transcriber provider groq, got %s", cfg.Transcriber.Provider)
	}
	if cfg.Responder.APIKey != "llm-key" {
		t.Errorf("expected responder api key from env, got %s", cfg.Responder.APIKey)
	}
	if cfg.General.InitialGreeting == "" {
		t.Error("expected a non-empty default initial greeting")
	}
}

func TestLoadFailsValidationWithoutRequiredKeys(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error when required API keys are missing")
	}
}
