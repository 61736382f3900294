// Package server provides the HTTP and WebSocket surface.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vocalcoach/platform/internal/conversation"
	apperrors "github.com/vocalcoach/platform/internal/errors"
	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/session"
	"github.com/vocalcoach/platform/internal/speech"
	"github.com/vocalcoach/platform/internal/stage"
	"github.com/vocalcoach/platform/internal/store"
	"github.com/vocalcoach/platform/internal/trace"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

type SessionEventMessage struct {
	Type  string        `json:"type"`
	Event session.Event `json:"event"`
}

type TurnEventMessage struct {
	Type  string             `json:"type"`
	Event conversation.Event `json:"event"`
}

type PongMessage struct {
	Type string `json:"type"`
}

type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server exposes both orchestrators and the read-only catalogs over
// HTTP, and pushes result events to connected WebSocket clients.
type Server struct {
	session  *session.Orchestrator
	dialogue *conversation.Orchestrator
	kv       store.KeyValueStore
	catalog  *speech.Catalog

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a server. Wire NotifySession and NotifyConversation as
// the orchestrators' notifiers so results reach connected clients.
func New(sess *session.Orchestrator, dialogue *conversation.Orchestrator, kv store.KeyValueStore, catalog *speech.Catalog) *Server {
	return &Server{
		session:    sess,
		dialogue:   dialogue,
		kv:         kv,
		catalog:    catalog,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
	}
}

// NotifySession broadcasts a session pipeline event.
func (s *Server) NotifySession(ev session.Event) {
	s.broadcast(SessionEventMessage{Type: "session_event", Event: ev})
}

// NotifyConversation broadcasts a dialogue event.
func (s *Server) NotifyConversation(ev conversation.Event) {
	s.broadcast(TurnEventMessage{Type: "conversation_event", Event: ev})
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			_ = wsjson.Write(context.Background(), c, msg)
		}(conn)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Session pipeline
	mux.HandleFunc("POST /api/recording/start", s.handleRecordingStart)
	mux.HandleFunc("POST /api/recording/stop", s.handleRecordingStop)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/compare-with-pro", s.handleCompare)
	mux.HandleFunc("POST /api/analyze-meeting", s.handleAnalyzeMeeting)
	mux.HandleFunc("POST /api/speak-feedback", s.handleSpeakFeedback)
	mux.HandleFunc("POST /api/session/clear", s.handleClearSession)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("POST /api/view", s.handleSelectView)

	// Catalogs
	mux.HandleFunc("GET /api/professional-speeches", s.handleProfessionalSpeeches)
	mux.HandleFunc("GET /api/meeting-templates", s.handleMeetingTemplates)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("POST /api/voice", s.handleSelectVoice)

	// Conversation mode
	mux.HandleFunc("POST /api/conversation/start", s.handleConversationStart)
	mux.HandleFunc("POST /api/conversation/turn/start", s.handleTurnStart)
	mux.HandleFunc("POST /api/conversation/turn/end", s.handleTurnEnd)
	mux.HandleFunc("POST /api/conversation/restart", s.handleConversationRestart)
	mux.HandleFunc("POST /api/conversation/topic", s.handleSelectTopic)
	mux.HandleFunc("GET /api/conversation/topics", s.handleTopics)
	mux.HandleFunc("GET /api/conversation/history", s.handleHistory)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "ping":
			_ = wsjson.Write(baseCtx, conn, PongMessage{Type: "pong"})
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps failure codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidState:
		status = http.StatusConflict
	case apperrors.CodeEmptyTranscript:
		status = http.StatusUnprocessableEntity
	case apperrors.CodePermissionDenied:
		status = http.StatusForbidden
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  string(apperrors.CodeOf(err)),
	})
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StartRecording(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "recording_started"})
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StopRecording(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{
		"status":     "recording_stopped",
		"transcript": s.session.Transcript(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Analyze(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	id, isMock := s.session.SessionID()
	writeJSON(w, map[string]any{"session_id": id, "is_mock": isMock})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfessionalID string `json:"professional_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := s.session.Compare(r.Context(), req.ProfessionalID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyzeMeeting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MeetingType string `json:"meeting_type"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := s.session.AnalyzeMeeting(r.Context(), req.MeetingType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSpeakFeedback(w http.ResponseWriter, r *http.Request) {
	text := s.session.SpeakFeedback(r.Context())
	writeJSON(w, map[string]string{"text": text})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ClearSession(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "cleared"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	transcript := s.session.Transcript()
	if len(transcript) > TranscriptPreviewLimit {
		transcript = transcript[:TranscriptPreviewLimit] + "..."
	}

	var view string
	_, _ = s.kv.Get(r.Context(), store.KeyActiveView, &view)

	writeJSON(w, map[string]any{
		"session_state":      s.session.State().String(),
		"conversation_state": s.dialogue.State().String(),
		"transcript":         transcript,
		"active_view":        view,
	})
}

// handleSelectView persists the client's active view so the UI can be
// restored across restarts.
func (s *Server) handleSelectView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.View == "" {
		writeError(w, apperrors.New(apperrors.CodeMalformedResponse, "view required"))
		return
	}
	if err := s.kv.Set(r.Context(), store.KeyActiveView, req.View); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "view": req.View})
}

// handleResults reads the persisted result slots so sibling views can
// render without re-running any stage.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out := make(map[string]any)

	var analysis remote.AnalysisPayload
	if found, _ := s.kv.Get(ctx, store.KeyAnalysisResult, &analysis); found {
		out["analysis"] = analysis
	}
	var comparison remote.ComparisonPayload
	if found, _ := s.kv.Get(ctx, store.KeyComparisonResult, &comparison); found {
		out["comparison"] = comparison
	}
	var meeting remote.MeetingPayload
	if found, _ := s.kv.Get(ctx, store.KeyMeetingResult, &meeting); found {
		out["meeting"] = meeting
	}

	writeJSON(w, out)
}

func (s *Server) handleProfessionalSpeeches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"speeches": stage.ProfessionalCatalog()})
}

func (s *Server) handleMeetingTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"templates": stage.MeetingTemplates()})
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"voices": s.catalog.Voices()})
}

func (s *Server) handleSelectVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VoiceID == "" {
		writeError(w, apperrors.New(apperrors.CodeMalformedResponse, "voice_id required"))
		return
	}
	if err := s.kv.Set(r.Context(), store.KeySelectedVoice, req.VoiceID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "voice_id": req.VoiceID})
}

func (s *Server) handleConversationStart(w http.ResponseWriter, r *http.Request) {
	if err := s.dialogue.Start(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"history": s.dialogue.History()})
}

func (s *Server) handleTurnStart(w http.ResponseWriter, r *http.Request) {
	if err := s.dialogue.BeginTurn(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "listening"})
}

func (s *Server) handleTurnEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.dialogue.EndTurn(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"history": s.dialogue.History()})
}

func (s *Server) handleConversationRestart(w http.ResponseWriter, r *http.Request) {
	if err := s.dialogue.Restart(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"history": s.dialogue.History()})
}

func (s *Server) handleSelectTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicID string `json:"topic_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TopicID == "" {
		writeError(w, apperrors.New(apperrors.CodeMalformedResponse, "topic_id required"))
		return
	}

	for _, topic := range s.dialogue.Topics(r.Context()) {
		if topic.ID == req.TopicID {
			s.dialogue.SelectTopic(r.Context(), topic)
			writeJSON(w, map[string]any{"history": s.dialogue.History()})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown topic " + req.TopicID})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"topics": s.dialogue.Topics(r.Context())})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"history": s.dialogue.History()})
}
