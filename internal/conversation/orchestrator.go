// Package conversation drives the turn-based coaching dialogue.
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/vocalcoach/platform/internal/capture"
	apperrors "github.com/vocalcoach/platform/internal/errors"
	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/speech"
	"github.com/vocalcoach/platform/internal/stage"
	"github.com/vocalcoach/platform/internal/store"
	"github.com/vocalcoach/platform/internal/syncx"
	"github.com/vocalcoach/platform/internal/trace"
)

// State is the dialogue state.
type State uint32

const (
	Idle State = iota
	ListeningTurn
	ProcessingTurn
	SpeakingTurn
)

func (s State) String() string {
	return [...]string{"idle", "listening_turn", "processing_turn", "speaking_turn"}[s]
}

// Turn speakers as recorded in the history.
const (
	SpeakerUser  = "user"
	SpeakerCoach = "ai"
)

// Event notifies the display collaborator that a turn was appended.
type Event struct {
	Kind string      `json:"kind"` // turn, restarted
	Turn remote.Turn `json:"turn,omitempty"`
}

// Notifier receives dialogue events. May be nil.
type Notifier func(Event)

// Orchestrator runs the listen-process-speak loop. Every path appends
// a turn and returns to Idle; a failed turn produces an apology reply
// instead of halting the dialogue.
type Orchestrator struct {
	capture    *capture.Controller
	start      *stage.ConversationStart
	respond    *stage.ConversationRespond
	transcribe *stage.Transcription
	api        *remote.Client
	synth      *speech.Synthesizer
	kv         store.KeyValueStore
	epoch      *syncx.Epoch
	notify     Notifier

	mu      sync.Mutex
	state   State
	history []remote.Turn
	started bool
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Capture       *capture.Controller
	Start         *stage.ConversationStart
	Respond       *stage.ConversationRespond
	Transcription *stage.Transcription
	API           *remote.Client
	Synthesizer   *speech.Synthesizer
	Store         store.KeyValueStore
	Epoch         *syncx.Epoch
	Notify        Notifier
}

// New creates a conversation orchestrator.
func New(d Deps) *Orchestrator {
	return &Orchestrator{
		capture:    d.Capture,
		start:      d.Start,
		respond:    d.Respond,
		transcribe: d.Transcription,
		api:        d.API,
		synth:      d.Synthesizer,
		kv:         d.Store,
		epoch:      d.Epoch,
		notify:     d.Notify,
	}
}

// SetNotifier installs the display notifier. Used when the display
// surface is constructed after the orchestrator.
func (o *Orchestrator) SetNotifier(fn Notifier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notify = fn
}

// State returns the current dialogue state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// History returns a copy of the dialogue so far.
func (o *Orchestrator) History() []remote.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]remote.Turn, len(o.history))
	copy(out, o.history)
	return out
}

// Start opens the dialogue with exactly one welcome turn and speaks it.
// Calling Start on a running dialogue is a no-op.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return nil
	}
	o.started = true
	o.mu.Unlock()

	res := o.start.Invoke(ctx, struct{}{})
	if !o.epoch.Valid(res.Token) {
		trace.Logger(ctx).Info("discarding stale welcome")
		return nil
	}

	turn := remote.Turn{
		Speaker:   SpeakerCoach,
		Text:      res.Value.Message,
		Timestamp: time.Now().UTC(),
		Tips:      res.Value.Tips,
	}
	o.appendTurn(ctx, turn)
	o.speak(ctx, turn.Text)
	return nil
}

// BeginTurn starts capturing the user's turn. Idempotent while listening.
func (o *Orchestrator) BeginTurn(ctx context.Context) error {
	o.mu.Lock()
	if o.state == ListeningTurn {
		o.mu.Unlock()
		return nil
	}
	if o.state != Idle {
		state := o.state
		o.mu.Unlock()
		return apperrors.Newf(apperrors.CodeInvalidState, "cannot listen from %s", state)
	}
	o.mu.Unlock()

	if err := o.capture.Start(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	o.state = ListeningTurn
	o.mu.Unlock()
	return nil
}

// EndTurn finalizes the user's audio, transcribes it, fetches the coach
// reply against the full history, and speaks it. An empty or failed
// transcription yields an apology reply; the dialogue never halts.
func (o *Orchestrator) EndTurn(ctx context.Context) error {
	o.mu.Lock()
	if o.state != ListeningTurn {
		o.mu.Unlock()
		return nil
	}
	o.state = ProcessingTurn
	o.mu.Unlock()

	artifact, err := o.capture.Stop()
	if err != nil {
		o.setState(Idle)
		return err
	}

	res := o.transcribe.Invoke(ctx, stage.TranscribeInput{
		Audio: artifact.Data,
		Mode:  stage.ModeConversation,
	})
	if !o.epoch.Valid(res.Token) {
		trace.Logger(ctx).Info("discarding stale turn transcription")
		o.resetIf(ProcessingTurn, Idle)
		return nil
	}

	if stage.IsEmptyTranscript(res.Value.Text) {
		apology := remote.Turn{
			Speaker:   SpeakerCoach,
			Text:      stage.ApologyFallback,
			Timestamp: time.Now().UTC(),
		}
		o.appendTurn(ctx, apology)
		o.speak(ctx, apology.Text)
		return nil
	}

	userTurn := remote.Turn{
		Speaker:   SpeakerUser,
		Text:      res.Value.Text,
		Timestamp: time.Now().UTC(),
	}
	o.appendTurn(ctx, userTurn)

	reply := o.respond.Invoke(ctx, stage.RespondInput{
		Message: res.Value.Text,
		History: o.History(),
	})
	if !o.epoch.Valid(reply.Token) {
		trace.Logger(ctx).Info("discarding stale coach reply")
		o.resetIf(ProcessingTurn, Idle)
		return nil
	}

	coachTurn := remote.Turn{
		Speaker:       SpeakerCoach,
		Text:          reply.Value.Text,
		Timestamp:     time.Now().UTC(),
		Tips:          reply.Value.Tips,
		QuickAnalysis: reply.Value.QuickAnalysis,
	}
	o.appendTurn(ctx, coachTurn)
	o.speak(ctx, coachTurn.Text)
	return nil
}

// SelectTopic appends a coach turn prompting the chosen practice topic
// and speaks it.
func (o *Orchestrator) SelectTopic(ctx context.Context, topic remote.Topic) {
	turn := remote.Turn{
		Speaker:   SpeakerCoach,
		Text:      "Great choice! Let's practice. " + topic.Prompt,
		Timestamp: time.Now().UTC(),
	}
	o.appendTurn(ctx, turn)
	o.speak(ctx, turn.Text)
}

// Topics returns the practice topics, falling back to the built-in
// list when the remote catalog is unreachable.
func (o *Orchestrator) Topics(ctx context.Context) []remote.Topic {
	topics, err := o.api.ConversationTopics(ctx)
	if err != nil || len(topics) == 0 {
		if err != nil {
			trace.Logger(ctx).Warn("topic catalog unreachable, using built-in list", "error", err)
		}
		return stage.FallbackTopics()
	}
	return topics
}

// Restart clears the dialogue and opens a fresh one with exactly one
// welcome turn. In-flight results from the old dialogue are discarded.
func (o *Orchestrator) Restart(ctx context.Context) error {
	o.epoch.Bump()
	o.synth.Stop()

	if err := o.kv.Remove(ctx, store.KeyConversationHistory); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "clear conversation history")
	}

	o.mu.Lock()
	o.history = nil
	o.state = Idle
	o.started = false
	o.mu.Unlock()

	o.emit(Event{Kind: "restarted"})
	return o.Start(ctx)
}

// appendTurn records the turn in memory and persists the full history
// before anything else observes it.
func (o *Orchestrator) appendTurn(ctx context.Context, turn remote.Turn) {
	o.mu.Lock()
	o.history = append(o.history, turn)
	snapshot := make([]remote.Turn, len(o.history))
	copy(snapshot, o.history)
	o.mu.Unlock()

	if err := o.kv.Set(ctx, store.KeyConversationHistory, snapshot); err != nil {
		trace.Logger(ctx).Error("persist conversation history failed", "error", err)
	}

	o.emit(Event{Kind: "turn", Turn: turn})
}

// speak plays the coach line and returns to Idle. Synthesis failures
// are absorbed by the synthesizer; the turn text is already recorded.
func (o *Orchestrator) speak(ctx context.Context, text string) {
	o.setState(SpeakingTurn)

	var voiceID string
	if found, _ := o.kv.Get(ctx, store.KeySelectedVoice, &voiceID); !found || voiceID == "" {
		voiceID = speech.DefaultVoiceID
	}
	o.synth.Speak(ctx, text, voiceID)

	o.setState(Idle)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// resetIf moves from -> to, leaving any other state alone. Stale
// discard paths use it so a restarted dialogue stays Idle.
func (o *Orchestrator) resetIf(from, to State) {
	o.mu.Lock()
	if o.state == from {
		o.state = to
	}
	o.mu.Unlock()
}

func (o *Orchestrator) emit(ev Event) {
	o.mu.Lock()
	fn := o.notify
	o.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
