// Package config loads and validates the agent's runtime configuration
// from environment variables (and an optional .env file), mirroring the
// microphone/segmenter/transcriber/responder/synthesizer/general section
// layout of the original Python configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type MicrophoneConfig struct {
	SampleRate int `mapstructure:"sample_rate" validate:"required,gt=0"`
}

type SegmenterConfig struct {
	Threshold float64 `mapstructure:"threshold" validate:"gt=0"`
}

type TranscriberConfig struct {
	Provider string `mapstructure:"provider" validate:"required"`
	APIKey   string `mapstructure:"api_key" validate:"required"`
	Model    string `mapstructure:"model" validate:"required"`
	Language string `mapstructure:"language" validate:"required"`
}

type ResponderConfig struct {
	Provider      string `mapstructure:"provider" validate:"required"`
	SystemMessage string `mapstructure:"system_message" validate:"required"`
	Model         string `mapstructure:"model" validate:"required"`
	MaxTokens     int    `mapstructure:"max_tokens" validate:"required,gt=0"`
	APIKey        string `mapstructure:"api_key" validate:"required"`
}

type SynthesizerConfig struct {
	Provider          string `mapstructure:"provider" validate:"required"`
	CredentialsPath   string `mapstructure:"credentials_path"`
	APIKey            string `mapstructure:"api_key"`
	VoiceLanguageCode string `mapstructure:"voice_language_code" validate:"required"`
	VoiceName         string `mapstructure:"voice_name" validate:"required"`
	VoiceGender       string `mapstructure:"voice_gender" validate:"required,oneof=male female neutral"`
	SampleRate        int    `mapstructure:"sample_rate" validate:"required,gt=0"`
}

type GeneralConfig struct {
	InitialGreeting string `mapstructure:"initial_greeting" validate:"required"`
	TwilioHost      string `mapstructure:"tw_host" validate:"required"`
	TwilioPort      int    `mapstructure:"tw_port" validate:"required,gt=0"`
	LogLevel        string `mapstructure:"log_level" validate:"required"`
}

type Config struct {
	Microphone  MicrophoneConfig  `mapstructure:"microphone" validate:"required"`
	Segmenter   SegmenterConfig   `mapstructure:"segmenter" validate:"required"`
	Transcriber TranscriberConfig `mapstructure:"transcriber" validate:"required"`
	Responder   ResponderConfig   `mapstructure:"responder" validate:"required"`
	Synthesizer SynthesizerConfig `mapstructure:"synthesizer" validate:"required"`
	General     GeneralConfig     `mapstructure:"general" validate:"required"`
}

// Load reads configuration from an .env-style file (path taken from
// ENV_PATH, falling back to ./.env in the working directory) merged
// with environment variables, applies defaults, and validates the
// result.
func Load() (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))

	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if path := os.Getenv("ENV_PATH"); path != "" {
		v.SetConfigFile(path)
	}
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MICROPHONE__SAMPLE_RATE", 16000)

	v.SetDefault("SEGMENTER__THRESHOLD", 0.4)

	// Keys with no real default are still registered (as empty) so that
	// Unmarshal sees them and AutomaticEnv can fill them from the
	// environment.
	v.SetDefault("TRANSCRIBER__API_KEY", "")
	v.SetDefault("RESPONDER__API_KEY", "")
	v.SetDefault("SYNTHESIZER__API_KEY", "")
	v.SetDefault("SYNTHESIZER__CREDENTIALS_PATH", "")

	v.SetDefault("TRANSCRIBER__PROVIDER", "groq")
	v.SetDefault("TRANSCRIBER__MODEL", "whisper-large-v3")
	v.SetDefault("TRANSCRIBER__LANGUAGE", "en")

	v.SetDefault("RESPONDER__PROVIDER", "anthropic")
	v.SetDefault("RESPONDER__SYSTEM_MESSAGE", "You are a helpful voice assistant. Keep replies brief.")
	v.SetDefault("RESPONDER__MODEL", "claude-3-5-sonnet-latest")
	v.SetDefault("RESPONDER__MAX_TOKENS", 1024)

	v.SetDefault("SYNTHESIZER__PROVIDER", "lokutor")
	v.SetDefault("SYNTHESIZER__VOICE_LANGUAGE_CODE", "en-US")
	v.SetDefault("SYNTHESIZER__VOICE_NAME", "en-US-Neural2-C")
	v.SetDefault("SYNTHESIZER__VOICE_GENDER", "female")
	v.SetDefault("SYNTHESIZER__SAMPLE_RATE", 24000)

	v.SetDefault("GENERAL__INITIAL_GREETING", "Hello, how can I help you today?")
	v.SetDefault("GENERAL__TW_HOST", "0.0.0.0")
	v.SetDefault("GENERAL__TW_PORT", 8080)
	v.SetDefault("GENERAL__LOG_LEVEL", "info")
}
