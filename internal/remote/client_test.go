package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/vocalcoach/platform/internal/errors"
)

func TestTranscribeUploadsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/speech-to-text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("mode"); got != "analysis" {
			t.Errorf("mode = %q, want analysis", got)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		file.Close()

		json.NewEncoder(w).Encode(TranscriptionResponse{Text: "hello world"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Transcribe(context.Background(), []byte{1, 2, 3}, "analysis")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if resp.Text != "hello world" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestAnalyzeDecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "my speech" {
			t.Errorf("text = %q", body["text"])
		}
		json.NewEncoder(w).Encode(AnalysisPayload{
			ClarityScore:           8,
			ConfidenceScore:        7,
			FillerWordsCount:       2,
			WordCount:              40,
			ImprovementSuggestions: []string{"Slow down"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Analyze(context.Background(), "my speech")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.ClarityScore != 8 || got.FillerWordsCount != 2 {
		t.Errorf("payload = %+v", got)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Analyze(context.Background(), "text")
	if !apperrors.IsCode(err, apperrors.CodeUnavailable) {
		t.Errorf("error = %v, want CodeUnavailable", err)
	}
}

func TestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Analyze(context.Background(), "text")
	if !apperrors.IsCode(err, apperrors.CodeMalformedResponse) {
		t.Errorf("error = %v, want CodeMalformedResponse", err)
	}
}

func TestUnreachableHostIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the port refuses connections

	c := New(srv.URL)
	_, err := c.Analyze(context.Background(), "text")
	if !apperrors.IsCode(err, apperrors.CodeNetworkFailure) {
		t.Errorf("error = %v, want CodeNetworkFailure", err)
	}
}

func TestDeadlineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(srv.URL)
	_, err := c.Analyze(ctx, "text")
	if !apperrors.IsCode(err, apperrors.CodeTimeout) {
		t.Errorf("error = %v, want CodeTimeout", err)
	}
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "transcript" {
			t.Errorf("text = %v", body["text"])
		}
		json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-42"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	id, err := c.CreateSession(context.Background(), "transcript", 12, time.Now())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id != "sess-42" {
		t.Errorf("id = %q", id)
	}
}

func TestCreateSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateSession(context.Background(), "t", 0, time.Now())
	if !apperrors.IsCode(err, apperrors.CodeMalformedResponse) {
		t.Errorf("error = %v, want CodeMalformedResponse", err)
	}
}

func TestRespondSendsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string `json:"message"`
			History []Turn `json:"history"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.History) != 2 {
			t.Errorf("history len = %d, want 2", len(body.History))
		}
		json.NewEncoder(w).Encode(ReplyPayload{Text: "Nice pacing!", CoachName: "Alex"})
	}))
	defer srv.Close()

	history := []Turn{
		{Speaker: "ai", Text: "Welcome!", Timestamp: time.Now()},
		{Speaker: "user", Text: "Hi coach", Timestamp: time.Now()},
	}

	c := New(srv.URL)
	reply, err := c.Respond(context.Background(), "Hi coach", history)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Text != "Nice pacing!" {
		t.Errorf("Text = %q", reply.Text)
	}
}

func TestTextToSpeechReturnsAudio(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["voice_id"] != "voice-1" {
			t.Errorf("voice_id = %q", body["voice_id"])
		}
		w.Write(audio)
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.TextToSpeech(context.Background(), "well done", "voice-1")
	if err != nil {
		t.Fatalf("TextToSpeech: %v", err)
	}
	if len(got) != len(audio) {
		t.Errorf("audio len = %d, want %d", len(got), len(audio))
	}
}

func TestVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"voices": []Voice{
			{ID: "v1", Name: "Adam"},
			{ID: "v2", Name: "Bella"},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 2 || voices[0].Name != "Adam" {
		t.Errorf("voices = %+v", voices)
	}
}
