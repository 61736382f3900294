package stage

import (
	"context"
	"time"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/syncx"
)

// CoachName is the coach persona used across conversation fallbacks.
const CoachName = "Alex"

// WelcomeFallback is the fixed welcome turn used when the conversation
// service cannot be reached.
const WelcomeFallback = "Hello! I'm Alex, your AI speaking coach. I'm here to help " +
	"you improve your communication skills through conversation practice."

// ApologyFallback replaces an empty or failed turn transcription.
// Conversation mode must always be able to continue.
const ApologyFallback = "I didn't catch that clearly. Could you please repeat?"

// ConversationStart is the start-conversation stage.
type ConversationStart = Client[struct{}, remote.WelcomePayload]

// NewConversationStart builds the conversation-start stage client.
func NewConversationStart(api *remote.Client, epoch *syncx.Epoch, timeout time.Duration) *ConversationStart {
	return NewClient("conversation.start", timeout, epoch,
		func(ctx context.Context, _ struct{}) (remote.WelcomePayload, error) {
			return api.StartConversation(ctx)
		},
		func(struct{}) remote.WelcomePayload {
			return remote.WelcomePayload{
				Message: WelcomeFallback,
				Tips:    []string{"Speak naturally", "Don't rush your words", "Focus on clarity"},
			}
		})
}

// RespondInput carries one user message plus the dialogue so far.
type RespondInput struct {
	Message string
	History []remote.Turn
}

// ConversationRespond is the coach-reply stage.
type ConversationRespond = Client[RespondInput, remote.ReplyPayload]

// NewConversationRespond builds the coach-reply stage client.
func NewConversationRespond(api *remote.Client, epoch *syncx.Epoch, timeout time.Duration) *ConversationRespond {
	return NewClient("conversation.respond", timeout, epoch,
		func(ctx context.Context, in RespondInput) (remote.ReplyPayload, error) {
			return api.Respond(ctx, in.Message, in.History)
		},
		func(RespondInput) remote.ReplyPayload {
			return remote.ReplyPayload{
				Text: "Thanks for sharing! I'm here to help you improve your " +
					"speaking skills. What would you like to practice next?",
				CoachName: CoachName,
				Tips:      []string{"Speak clearly", "Project your voice"},
				QuickAnalysis: &remote.QuickAnalysis{
					ConfidenceScore: 6,
					ClarityScore:    7,
					Pace:            "normal",
					Suggestion:      "Great start! Keep practicing regularly.",
				},
			}
		})
}

// FallbackTopics is the built-in practice topic list used when the
// remote topic catalog is unreachable.
func FallbackTopics() []remote.Topic {
	return []remote.Topic{
		{ID: "introduce_yourself", Name: "Introduce Yourself", Prompt: "Tell me about yourself in about thirty seconds."},
		{ID: "describe_your_day", Name: "Describe Your Day", Prompt: "Walk me through what you did today."},
		{ID: "pitch_an_idea", Name: "Pitch an Idea", Prompt: "Pitch me an idea you're excited about."},
		{ID: "handle_a_question", Name: "Handle a Tough Question", Prompt: "Answer this: what is your biggest weakness?"},
	}
}
