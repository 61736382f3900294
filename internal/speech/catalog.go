package speech

import (
	"context"
	"time"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/resilience"
	"github.com/vocalcoach/platform/internal/syncx"
	"github.com/vocalcoach/platform/internal/trace"
)

// DefaultVoiceID is the coach voice used until the user picks another.
const DefaultVoiceID = "pNInz6obpgDQGcFmaJgB"

// fallbackVoices is the built-in voice list used until a remote refresh
// succeeds.
func fallbackVoices() []remote.Voice {
	return []remote.Voice{
		{ID: DefaultVoiceID, Name: "Adam", Category: "premade"},
		{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Category: "premade"},
	}
}

// Catalog holds the available coach voices, refreshed in the background.
// This is the one place the retry helper is used: catalog refreshes are
// bootstrap work, not user-triggered pipeline stages.
type Catalog struct {
	api      *remote.Client
	interval time.Duration
	voices   *syncx.RWGuard[[]remote.Voice]
}

// NewCatalog creates a voice catalog seeded with the built-in list.
func NewCatalog(api *remote.Client, interval time.Duration) *Catalog {
	return &Catalog{
		api:      api,
		interval: interval,
		voices:   syncx.NewGuard(fallbackVoices()),
	}
}

// Voices returns the current voice list.
func (c *Catalog) Voices() []remote.Voice {
	return c.voices.Get()
}

// Refresh fetches the remote voice list with retry/backoff. The
// built-in list stays in place when every attempt fails.
func (c *Catalog) Refresh(ctx context.Context) error {
	var fetched []remote.Voice
	err := resilience.Retry(ctx, resilience.CatalogRetryConfig(), func() error {
		var err error
		fetched, err = c.api.Voices(ctx)
		return err
	})
	if err != nil {
		trace.Logger(ctx).Warn("voice catalog refresh failed, keeping current list", "error", err)
		return err
	}
	if len(fetched) == 0 {
		return nil
	}

	c.voices.Set(fetched)
	trace.Logger(ctx).Info("voice catalog refreshed", "voices", len(fetched))
	return nil
}

// Run refreshes the catalog periodically until ctx is cancelled.
func (c *Catalog) Run(ctx context.Context) {
	_ = c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}
