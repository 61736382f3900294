// Package speech converts feedback text to audio with exclusive playback.
package speech

import (
	"context"
	"sync"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/trace"
)

// Player plays one utterance of encoded audio. Play blocks until the
// utterance finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Synthesizer speaks coaching feedback. Playback is exclusive: starting
// a new utterance cancels whatever is currently playing. Remote TTS
// failures degrade to logging the utterance text; they never block the
// pipeline.
type Synthesizer struct {
	api    *remote.Client
	player Player

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing sync.WaitGroup
}

// NewSynthesizer creates a synthesizer over the coach API and a player.
func NewSynthesizer(api *remote.Client, player Player) *Synthesizer {
	return &Synthesizer{api: api, player: player}
}

// Speak cancels any current utterance, synthesizes text with the given
// voice, and starts playback. It returns once playback has started (or
// been skipped); it never fails the caller.
func (s *Synthesizer) Speak(ctx context.Context, text, voiceID string) {
	s.Stop()

	audio, err := s.api.TextToSpeech(ctx, text, voiceID)
	if err != nil {
		// Degraded mode: the feedback still reaches the user as text.
		trace.Logger(ctx).Warn("speech synthesis unavailable, logging utterance",
			"voice", voiceID, "utterance", text, "error", err)
		return
	}

	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.playing.Add(1)
	go func() {
		defer s.playing.Done()
		defer cancel()
		if err := s.player.Play(playCtx, audio); err != nil && playCtx.Err() == nil {
			trace.Logger(ctx).Warn("playback failed", "error", err)
		}
	}()
}

// Stop cancels the current utterance, if any, and waits for playback
// to wind down.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.playing.Wait()
}
