package syncx

import "sync/atomic"

// Epoch is a monotonically increasing counter used to detect and discard
// stale asynchronous results. Callers snapshot the current token before an
// async operation and compare it when the result arrives; a mismatch means
// the owning cycle was reset mid-flight.
type Epoch struct {
	n atomic.Uint64
}

// Token is an epoch snapshot.
type Token uint64

// Current returns the current token.
func (e *Epoch) Current() Token {
	return Token(e.n.Load())
}

// Bump advances the epoch, invalidating all outstanding tokens.
func (e *Epoch) Bump() Token {
	return Token(e.n.Add(1))
}

// Valid reports whether the token is still current.
func (e *Epoch) Valid(t Token) bool {
	return Token(e.n.Load()) == t
}
