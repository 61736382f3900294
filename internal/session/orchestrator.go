// Package session drives the single-shot coaching pipeline state machine.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vocalcoach/platform/internal/capture"
	apperrors "github.com/vocalcoach/platform/internal/errors"
	"github.com/vocalcoach/platform/internal/feedback"
	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/speech"
	"github.com/vocalcoach/platform/internal/stage"
	"github.com/vocalcoach/platform/internal/store"
	"github.com/vocalcoach/platform/internal/syncx"
	"github.com/vocalcoach/platform/internal/trace"
)

// State is the pipeline state.
type State uint32

const (
	Idle State = iota
	Capturing
	TranscriptReady
	Analyzing
	AnalysisReady
	ComparingOrMeeting
	Synthesizing
)

func (s State) String() string {
	return [...]string{
		"idle", "capturing", "transcript_ready", "analyzing",
		"analysis_ready", "comparing_or_meeting", "synthesizing",
	}[s]
}

// Event notifies the display collaborator that a result landed.
type Event struct {
	Kind    string `json:"kind"` // transcript, analysis, comparison, meeting, cleared
	IsMock  bool   `json:"is_mock"`
	Note    string `json:"note,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Notifier receives display events. May be nil.
type Notifier func(Event)

// Orchestrator ties capture, the remote stages, the store, and speech
// synthesis into one pipeline. All stage results are checked against
// the epoch before being applied, so a cleared session silently
// discards whatever was in flight.
type Orchestrator struct {
	capture       *capture.Controller
	transcription *stage.Transcription
	analysis      *stage.Analysis
	comparison    *stage.Comparison
	meeting       *stage.Meeting
	api           *remote.Client
	composer      *feedback.Composer
	synth         *speech.Synthesizer
	kv            store.KeyValueStore
	epoch         *syncx.Epoch
	notify        Notifier

	mu            sync.Mutex
	state         State
	transcript    string
	audioDuration time.Duration
	sessionID     string
	sessionIsMock bool
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Capture       *capture.Controller
	Transcription *stage.Transcription
	Analysis      *stage.Analysis
	Comparison    *stage.Comparison
	Meeting       *stage.Meeting
	API           *remote.Client
	Composer      *feedback.Composer
	Synthesizer   *speech.Synthesizer
	Store         store.KeyValueStore
	Epoch         *syncx.Epoch
	Notify        Notifier
}

// New creates a session orchestrator.
func New(d Deps) *Orchestrator {
	return &Orchestrator{
		capture:       d.Capture,
		transcription: d.Transcription,
		analysis:      d.Analysis,
		comparison:    d.Comparison,
		meeting:       d.Meeting,
		api:           d.API,
		composer:      d.Composer,
		synth:         d.Synthesizer,
		kv:            d.Store,
		epoch:         d.Epoch,
		notify:        d.Notify,
	}
}

// SetNotifier installs the display notifier. Used when the display
// surface is constructed after the orchestrator.
func (o *Orchestrator) SetNotifier(fn Notifier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notify = fn
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Transcript returns the current session transcript, empty before
// transcription succeeds. Immutable once set; re-recording starts a
// new cycle.
func (o *Orchestrator) Transcript() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript
}

// SessionID returns the server-side session id, or the local substitute.
func (o *Orchestrator) SessionID() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID, o.sessionIsMock
}

// StartRecording begins a capture cycle. Idempotent while capturing.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	o.mu.Lock()
	if o.state == Capturing {
		o.mu.Unlock()
		return nil
	}
	if o.state != Idle {
		state := o.state
		o.mu.Unlock()
		return apperrors.Newf(apperrors.CodeInvalidState, "cannot record from %s", state)
	}
	o.mu.Unlock()

	if err := o.capture.Start(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	o.state = Capturing
	o.mu.Unlock()
	return nil
}

// StopRecording finalizes the artifact and transcribes it. An empty
// transcript halts the run with EmptyTranscript and returns to Idle.
func (o *Orchestrator) StopRecording(ctx context.Context) error {
	o.mu.Lock()
	if o.state != Capturing {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	artifact, err := o.capture.Stop()
	if err != nil {
		o.setState(Idle)
		return err
	}

	res := o.transcription.Invoke(ctx, stage.TranscribeInput{
		Audio: artifact.Data,
		Mode:  stage.ModeAnalysis,
	})
	if !o.epoch.Valid(res.Token) {
		trace.Logger(ctx).Info("discarding stale transcription")
		o.resetIf(Capturing, Idle)
		return nil
	}

	if stage.IsEmptyTranscript(res.Value.Text) {
		o.setState(Idle)
		return apperrors.New(apperrors.CodeEmptyTranscript, "no speech detected in recording")
	}

	if err := o.kv.Set(ctx, store.KeyTranscript, res.Value.Text); err != nil {
		trace.Logger(ctx).Error("persist transcript failed", "error", err)
	}

	o.mu.Lock()
	o.transcript = res.Value.Text
	o.audioDuration = artifact.Duration
	o.state = TranscriptReady
	o.mu.Unlock()

	o.emit(Event{Kind: "transcript", IsMock: res.IsMock, Note: res.Note, Payload: res.Value})
	return nil
}

// Analyze creates a server-side session, runs the analysis stage, and
// persists the pairing. Repeatable; re-analysis overwrites.
func (o *Orchestrator) Analyze(ctx context.Context) error {
	o.mu.Lock()
	if o.state != TranscriptReady && o.state != AnalysisReady {
		state := o.state
		o.mu.Unlock()
		return apperrors.Newf(apperrors.CodeInvalidState, "cannot analyze from %s", state)
	}
	o.state = Analyzing
	text := o.transcript
	duration := o.audioDuration
	o.mu.Unlock()

	token := o.epoch.Current()

	// Server-side persistence is best effort: a local id substitutes
	// when the session service is down.
	sessionID, err := o.api.CreateSession(ctx, text, int(duration.Seconds()), time.Now())
	sessionIsMock := false
	if err != nil {
		sessionID = uuid.NewString()
		sessionIsMock = true
		trace.Logger(ctx).Warn("session service unavailable, using local id",
			"session_id", sessionID, "error", err)
	}

	res := o.analysis.Invoke(ctx, text)
	if !o.epoch.Valid(token) || !o.epoch.Valid(res.Token) {
		trace.Logger(ctx).Info("discarding stale analysis")
		o.resetIf(Analyzing, Idle)
		return nil
	}

	// A degraded stage call and a server-side demo reply both mark the
	// persisted result as mock.
	res.Value.IsMock = res.Value.IsMock || res.IsMock

	if err := o.kv.Set(ctx, store.KeyAnalysisResult, res.Value); err != nil {
		trace.Logger(ctx).Error("persist analysis failed", "error", err)
	}
	if err := o.kv.Set(ctx, store.KeyHasSeenAnalysis, true); err != nil {
		trace.Logger(ctx).Error("persist seen flag failed", "error", err)
	}

	if !sessionIsMock {
		if err := o.api.AttachAnalysis(ctx, sessionID, res.Value); err != nil {
			trace.Logger(ctx).Warn("attach analysis failed", "session_id", sessionID, "error", err)
		}
	}

	o.mu.Lock()
	o.sessionID = sessionID
	o.sessionIsMock = sessionIsMock
	o.state = AnalysisReady
	o.mu.Unlock()

	o.emit(Event{Kind: "analysis", IsMock: res.Value.IsMock, Note: res.Note, Payload: res.Value})
	return nil
}

// Compare runs the professional-comparison side operation. Repeatable
// from AnalysisReady; it never invalidates the analysis result.
func (o *Orchestrator) Compare(ctx context.Context, professionalID string) error {
	text, err := o.beginSideOperation()
	if err != nil {
		return err
	}

	res := o.comparison.Invoke(ctx, stage.CompareInput{Text: text, ProfessionalID: professionalID})
	res.Value.IsMock = res.Value.IsMock || res.IsMock
	return o.finishSideOperation(ctx, "comparison", store.KeyComparisonResult,
		res.Value, res.Value.IsMock, res.Note, res.Token)
}

// AnalyzeMeeting runs the meeting-readiness side operation.
func (o *Orchestrator) AnalyzeMeeting(ctx context.Context, meetingType string) error {
	text, err := o.beginSideOperation()
	if err != nil {
		return err
	}

	res := o.meeting.Invoke(ctx, stage.MeetingInput{Text: text, MeetingType: meetingType})
	res.Value.IsMock = res.Value.IsMock || res.IsMock
	return o.finishSideOperation(ctx, "meeting", store.KeyMeetingResult,
		res.Value, res.Value.IsMock, res.Note, res.Token)
}

// beginSideOperation transitions AnalysisReady -> ComparingOrMeeting.
// The state gate means at most one side call runs at a time.
func (o *Orchestrator) beginSideOperation() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != AnalysisReady {
		return "", apperrors.Newf(apperrors.CodeInvalidState, "cannot run side analysis from %s", o.state)
	}
	o.state = ComparingOrMeeting
	return o.transcript, nil
}

func (o *Orchestrator) finishSideOperation(ctx context.Context, kind, slot string, value any, isMock bool, note string, token syncx.Token) error {
	if !o.epoch.Valid(token) {
		trace.Logger(ctx).Info("discarding stale "+kind, "slot", slot)
		o.resetIf(ComparingOrMeeting, Idle)
		return nil
	}

	if err := o.kv.Set(ctx, slot, value); err != nil {
		trace.Logger(ctx).Error("persist "+kind+" failed", "error", err)
	}

	o.resetIf(ComparingOrMeeting, AnalysisReady)

	o.emit(Event{Kind: kind, IsMock: isMock, Note: note, Payload: value})
	return nil
}

// ClearSession wipes the session slots, bumps the epoch so in-flight
// calls are discarded, and returns to Idle.
func (o *Orchestrator) ClearSession(ctx context.Context) error {
	o.epoch.Bump()

	if err := o.kv.Remove(ctx, store.SessionSlots()...); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "clear session slots")
	}

	o.mu.Lock()
	o.state = Idle
	o.transcript = ""
	o.audioDuration = 0
	o.sessionID = ""
	o.sessionIsMock = false
	o.mu.Unlock()

	o.emit(Event{Kind: "cleared"})
	return nil
}

// SpeakFeedback composes the persisted results into text and speaks
// it, then returns to the state it interrupted.
func (o *Orchestrator) SpeakFeedback(ctx context.Context) string {
	o.mu.Lock()
	prev := o.state
	o.state = Synthesizing
	o.mu.Unlock()

	text := o.composer.Compose(ctx)

	var voiceID string
	if found, _ := o.kv.Get(ctx, store.KeySelectedVoice, &voiceID); !found || voiceID == "" {
		voiceID = speech.DefaultVoiceID
	}
	o.synth.Speak(ctx, text, voiceID)

	o.mu.Lock()
	if o.state == Synthesizing {
		o.state = prev
	}
	o.mu.Unlock()

	return text
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// resetIf moves from -> to, leaving any other state alone. Stale
// discard paths use it so an already-cleared session stays Idle.
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
