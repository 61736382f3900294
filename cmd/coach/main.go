// Coach server - orchestrates capture, coaching stages, and WebSocket connections
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocalcoach/platform/internal/capture"
	"github.com/vocalcoach/platform/internal/config"
	"github.com/vocalcoach/platform/internal/conversation"
	"github.com/vocalcoach/platform/internal/feedback"
	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/server"
	"github.com/vocalcoach/platform/internal/session"
	"github.com/vocalcoach/platform/internal/speech"
	"github.com/vocalcoach/platform/internal/stage"
	"github.com/vocalcoach/platform/internal/store"
	"github.com/vocalcoach/platform/internal/syncx"
)

func main() {
	cfg := config.MustLoad()

	// Setup structured logging
	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// Persistent slot store, with in-memory fallback
	var kv store.KeyValueStore
	sqlStore, err := store.Open(cfg.StorePath)
	if err != nil {
		slog.Warn("sqlite store unavailable, results will not survive restarts",
			"path", cfg.StorePath, "error", err)
		kv = store.NewMemory()
	} else {
		kv = sqlStore
	}
	defer func() { _ = kv.Close() }()

	api := remote.New(cfg.CoachAPIURL)
	defer api.Close()

	// Microphone and playback
	device, err := capture.NewPortAudioDevice()
	if err != nil {
		slog.Error("audio subsystem init failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = device.Close() }()

	synth := speech.NewSynthesizer(api, speech.NewPortAudioPlayer())
	catalog := speech.NewCatalog(api, cfg.VoiceRefresh())

	// One controller guards the microphone: whichever mode opened it
	// first wins, the other gets an invalid-state error. Each mode has
	// its own epoch so clearing one cannot discard the other's results.
	mic := capture.NewController(device, cfg.SampleRate)
	sessEpoch := &syncx.Epoch{}
	dlgEpoch := &syncx.Epoch{}
	fallback := stage.NewFallback(uint64(time.Now().UnixNano()))

	sess := session.New(session.Deps{
		Capture:       mic,
		Transcription: stage.NewTranscription(api, sessEpoch, cfg.TranscriptionTimeout()),
		Analysis:      stage.NewAnalysis(api, sessEpoch, cfg.StageTimeout()),
		Comparison:    stage.NewComparison(api, sessEpoch, cfg.StageTimeout()),
		Meeting:       stage.NewMeeting(api, sessEpoch, cfg.StageTimeout(), fallback),
		API:           api,
		Composer:      feedback.NewComposer(kv),
		Synthesizer:   synth,
		Store:         kv,
		Epoch:         sessEpoch,
	})
	dialogue := conversation.New(conversation.Deps{
		Capture:       mic,
		Start:         stage.NewConversationStart(api, dlgEpoch, cfg.StageTimeout()),
		Respond:       stage.NewConversationRespond(api, dlgEpoch, cfg.StageTimeout()),
		Transcription: stage.NewTranscription(api, dlgEpoch, cfg.TranscriptionTimeout()),
		API:           api,
		Synthesizer:   synth,
		Store:         kv,
		Epoch:         dlgEpoch,
	})

	srv := server.New(sess, dialogue, kv, catalog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Orchestrator events reach connected clients through the server
	sess.SetNotifier(srv.NotifySession)
	dialogue.SetNotifier(srv.NotifyConversation)

	// Refresh the voice catalog in the background
	go catalog.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("coach server starting", "http", cfg.HTTPAddr, "api", cfg.CoachAPIURL)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()
	synth.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
