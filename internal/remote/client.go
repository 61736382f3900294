// Package remote provides a client for the coach API collaborators
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/vocalcoach/platform/internal/errors"
)

// Client wraps every coach API collaborator behind typed methods.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a coach API client. baseURL has no trailing slash.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Transcribe uploads an audio artifact for speech-to-text. mode is an
// opaque tag ("analysis" or "conversation") forwarded to the service.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mode string) (TranscriptionResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "recording.wav")
	if err != nil {
		return TranscriptionResponse{}, apperrors.Wrap(err, apperrors.CodeInternal, "build upload")
	}
	if _, err := part.Write(audio); err != nil {
		return TranscriptionResponse{}, apperrors.Wrap(err, apperrors.CodeInternal, "build upload")
	}
	if err := mw.WriteField("mode", mode); err != nil {
		return TranscriptionResponse{}, apperrors.Wrap(err, apperrors.CodeInternal, "build upload")
	}
	if err := mw.Close(); err != nil {
		return TranscriptionResponse{}, apperrors.Wrap(err, apperrors.CodeInternal, "build upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/speech-to-text", &buf)
	if err != nil {
		return TranscriptionResponse{}, apperrors.Wrap(err, apperrors.CodeInternal, "build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out TranscriptionResponse
	if err := c.do(req, &out); err != nil {
		return TranscriptionResponse{}, err
	}
	return out, nil
}

// Analyze requests coaching analysis for a transcript.
func (c *Client) Analyze(ctx context.Context, text string) (AnalysisPayload, error) {
	var out AnalysisPayload
	err := c.postJSON(ctx, "/api/analyze", map[string]string{"text": text}, &out)
	return out, err
}

// CreateSession persists a session server-side and returns its id.
func (c *Client) CreateSession(ctx context.Context, text string, audioDuration int, recordedAt time.Time) (string, error) {
	body := map[string]any{
		"text":           text,
		"audio_duration": audioDuration,
		"recorded_at":    recordedAt.Format(time.RFC3339),
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.postJSON(ctx, "/api/sessions", body, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", apperrors.New(apperrors.CodeMalformedResponse, "session reply missing session_id")
	}
	return out.SessionID, nil
}

// AttachAnalysis stores an analysis under a server-side session.
func (c *Client) AttachAnalysis(ctx context.Context, sessionID string, analysis AnalysisPayload) error {
	return c.postJSON(ctx, "/api/sessions/"+sessionID+"/analysis", analysis, nil)
}

// Compare requests a comparison with a professional speaker. professionalID
// may be empty, letting the service pick the most relevant one.
func (c *Client) Compare(ctx context.Context, text, professionalID string) (ComparisonPayload, error) {
	body := map[string]string{"text": text}
	if professionalID != "" {
		body["professional_id"] = professionalID
	}
	var out ComparisonPayload
	err := c.postJSON(ctx, "/api/compare-with-pro", body, &out)
	return out, err
}

// ProfessionalSpeeches fetches the professional speaker catalog.
func (c *Client) ProfessionalSpeeches(ctx context.Context) ([]ProfessionalSpeech, error) {
	var out struct {
		Speeches []ProfessionalSpeech `json:"speeches"`
	}
	if err := c.getJSON(ctx, "/api/professional-speeches", &out); err != nil {
		return nil, err
	}
	return out.Speeches, nil
}

// AnalyzeMeeting requests meeting-readiness analysis for a transcript.
func (c *Client) AnalyzeMeeting(ctx context.Context, text, meetingType string) (MeetingPayload, error) {
	body := map[string]string{"text": text, "meeting_type": meetingType}
	var out MeetingPayload
	err := c.postJSON(ctx, "/api/analyze-meeting", body, &out)
	return out, err
}

// MeetingTemplates fetches the virtual-meeting practice scenarios.
func (c *Client) MeetingTemplates(ctx context.Context) ([]MeetingTemplate, error) {
	var out struct {
		Templates []MeetingTemplate `json:"templates"`
	}
	if err := c.getJSON(ctx, "/api/meeting-templates", &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// StartConversation begins a coaching dialogue and returns the welcome turn.
func (c *Client) StartConversation(ctx context.Context) (WelcomePayload, error) {
	var out WelcomePayload
	err := c.postJSON(ctx, "/api/conversation/start", nil, &out)
	return out, err
}

// Respond sends one user message plus the dialogue so far.
func (c *Client) Respond(ctx context.Context, message string, history []Turn) (ReplyPayload, error) {
	body := map[string]any{"message": message, "history": history}
	var out ReplyPayload
	err := c.postJSON(ctx, "/api/conversation/respond", body, &out)
	return out, err
}

// ConversationTopics fetches suggested practice topics.
func (c *Client) ConversationTopics(ctx context.Context) ([]Topic, error) {
	var out struct {
		Topics []Topic `json:"topics"`
	}
	if err := c.getJSON(ctx, "/api/conversation/topics", &out); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

// TextToSpeech synthesizes text and returns the raw audio bytes.
func (c *Client) TextToSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"text": text, "voice_id": voiceID})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/text-to-speech", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Newf(apperrors.CodeUnavailable, "text-to-speech returned %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeNetworkFailure, "read audio body")
	}
	if len(audio) == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedResponse, "empty audio body")
	}
	return audio, nil
}

// Voices fetches the available coach voice identities.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := c.getJSON(ctx, "/api/voices", &out); err != nil {
		return nil, err
	}
	return out.Voices, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "build request")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Newf(apperrors.CodeUnavailable, "%s %s returned %d",
			req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.CodeMalformedResponse,
			fmt.Sprintf("decode %s reply", req.URL.Path))
	}
	return nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeTimeout, "request deadline exceeded")
	}
	return apperrors.Wrap(err, apperrors.CodeNetworkFailure, "request failed")
}
