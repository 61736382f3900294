package stage

import (
	"context"
	"strings"
	"time"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/syncx"
)

// Transcription modes, forwarded opaquely to the collaborator.
const (
	ModeAnalysis     = "analysis"
	ModeConversation = "conversation"
)

// TranscriptPlaceholder is the deterministic fallback transcript. The
// downstream stages need non-empty stable text, so this is never random.
const TranscriptPlaceholder = "This is a sample transcription of your recording. " +
	"The speech to text service could not be reached, so this placeholder " +
	"text lets you try the rest of the coaching pipeline."

// TranscribeInput carries one audio artifact to the transcription stage.
type TranscribeInput struct {
	Audio []byte
	Mode  string
}

// Transcription is the speech-to-text stage.
type Transcription = Client[TranscribeInput, remote.TranscriptionResponse]

// NewTranscription builds the transcription stage client.
func NewTranscription(api *remote.Client, epoch *syncx.Epoch, timeout time.Duration) *Transcription {
	return NewClient("transcription", timeout, epoch,
		func(ctx context.Context, in TranscribeInput) (remote.TranscriptionResponse, error) {
			return api.Transcribe(ctx, in.Audio, in.Mode)
		},
		func(TranscribeInput) remote.TranscriptionResponse {
			return remote.TranscriptionResponse{
				Text: TranscriptPlaceholder,
				Note: "Transcription service unavailable, using placeholder text.",
			}
		})
}

// IsEmptyTranscript reports whether the transcript has no usable text.
func IsEmptyTranscript(text string) bool {
	return strings.TrimSpace(text) == ""
}
