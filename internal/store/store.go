// Package store provides durable key-value persistence for session state.
package store

import "context"

// Slot keys used by the orchestrators and sibling views.
const (
	KeyTranscript          = "transcript"
	KeyAnalysisResult      = "analysisResult"
	KeyComparisonResult    = "comparisonResult"
	KeyMeetingResult       = "meetingResult"
	KeyConversationHistory = "conversationHistory"
	KeyActiveView          = "activeView"
	KeySelectedVoice       = "selectedVoice"
	KeyHasSeenAnalysis     = "hasSeenAnalysis"
)

// SessionSlots returns the slots owned by a recording session. Clearing
// a session removes exactly these; conversation history and UI
// preferences survive.
func SessionSlots() []string {
	return []string{
		KeyTranscript,
		KeyAnalysisResult,
		KeyComparisonResult,
		KeyMeetingResult,
		KeyHasSeenAnalysis,
	}
}

// KeyValueStore persists JSON-serializable slot values. Absence is
// never an error: Get reports found=false for missing keys, and also
// for values that no longer parse (corrupt data is logged and treated
// as absent, it must not break callers).
type KeyValueStore interface {
	// Get unmarshals the slot value into dest. found is false when the
	// key is absent or the stored value is unparseable.
	Get(ctx context.Context, key string, dest any) (found bool, err error)

	// Set writes the slot synchronously. The write completes before
	// Set returns.
	Set(ctx context.Context, key string, value any) error

	// Remove deletes the given slots. Removing an absent key is a no-op.
	Remove(ctx context.Context, keys ...string) error

	Close() error
}
