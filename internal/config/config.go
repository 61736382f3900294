// Package config handles platform configuration
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime settings, populated from environment variables.
type Config struct {
	HTTPAddr     string `env:"HTTP_ADDR" env-default:":8000"`
	CoachAPIURL  string `env:"COACH_API_URL" env-default:"http://localhost:8080"`
	StorePath    string `env:"STORE_PATH" env-default:"vocalcoach.sqlite"`
	SampleRate   int    `env:"SAMPLE_RATE" env-default:"16000"`
	LogJSON      bool   `env:"LOG_JSON" env-default:"false"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	DefaultVoice string `env:"DEFAULT_VOICE_ID" env-default:"pNInz6obpgDQGcFmaJgB"`

	StageTimeoutSec         int `env:"STAGE_TIMEOUT_SEC" env-default:"15"`
	TranscriptionTimeoutSec int `env:"TRANSCRIPTION_TIMEOUT_SEC" env-default:"30"`
	VoiceRefreshMinutes     int `env:"VOICE_REFRESH_MINUTES" env-default:"30"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad reads configuration and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("failed to read environment variables: " + err.Error())
	}
	return cfg
}

// StageTimeout returns the soft deadline for non-transcription stage calls.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSec) * time.Second
}

// TranscriptionTimeout returns the soft deadline for transcription calls.
func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.TranscriptionTimeoutSec) * time.Second
}

// VoiceRefresh returns the voice catalog refresh interval.
func (c *Config) VoiceRefresh() time.Duration {
	return time.Duration(c.VoiceRefreshMinutes) * time.Minute
}
