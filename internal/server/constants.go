// Package server provides the HTTP and WebSocket surface.
package server

import "time"

// Server configuration constants
const (
	// Text truncation limit for transcript previews in state responses
	TranscriptPreviewLimit = 500

	// Per-connection WebSocket rate limiting
	RateLimitMessages = 30          // Max messages per connection per window
	RateLimitWindow   = time.Second // Sliding window duration
)
