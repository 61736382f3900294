package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.CoachAPIURL != "http://localhost:8080" {
		t.Errorf("CoachAPIURL = %q, want %q", cfg.CoachAPIURL, "http://localhost:8080")
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.StageTimeout() != 15*time.Second {
		t.Errorf("StageTimeout = %v, want 15s", cfg.StageTimeout())
	}
	if cfg.TranscriptionTimeout() != 30*time.Second {
		t.Errorf("TranscriptionTimeout = %v, want 30s", cfg.TranscriptionTimeout())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9001")
	t.Setenv("SAMPLE_RATE", "44100")
	t.Setenv("STAGE_TIMEOUT_SEC", "5")
	t.Setenv("LOG_JSON", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPAddr != ":9001" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9001")
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.StageTimeout() != 5*time.Second {
		t.Errorf("StageTimeout = %v, want 5s", cfg.StageTimeout())
	}
	if !cfg.LogJSON {
		t.Error("LogJSON should be true")
	}
}

func TestLoadBadValue(t *testing.T) {
	t.Setenv("SAMPLE_RATE", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail on unparseable int")
	}
}
