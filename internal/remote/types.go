package remote

import "time"

// TranscriptionResponse is the speech-to-text reply.
type TranscriptionResponse struct {
	Text string `json:"text"`
	Note string `json:"note,omitempty"`
}

// AnalysisPayload is the coaching analysis for one transcript.
type AnalysisPayload struct {
	ClarityScore           float64  `json:"clarity_score"`
	ConfidenceScore        float64  `json:"confidence_score"`
	FillerWordsCount       int      `json:"filler_words_count"`
	FillerWordsList        []string `json:"filler_words_list,omitempty"`
	Pace                   string   `json:"pace,omitempty"`
	WordCount              int      `json:"word_count"`
	KeyFeedback            []string `json:"key_feedback,omitempty"`
	ImprovementSuggestions []string `json:"improvement_suggestions,omitempty"`
	IsMock                 bool     `json:"is_mock"`
}

// ProfessionalMetrics are the reference scores of a professional speaker.
type ProfessionalMetrics struct {
	ClarityScore         float64 `json:"clarity_score"`
	ConfidenceScore      float64 `json:"confidence_score"`
	Pace                 string  `json:"pace"`
	FillerWordsPerMinute float64 `json:"filler_words_per_minute"`
}

// ProfessionalSpeech is one entry of the professional speaker catalog.
type ProfessionalSpeech struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Speaker    string              `json:"speaker"`
	Category   string              `json:"category"`
	SampleText string              `json:"sample_text"`
	Metrics    ProfessionalMetrics `json:"metrics"`
	Tags       []string            `json:"tags,omitempty"`
}

// SimilarityScores express how close the user is to the professional, in percent.
type SimilarityScores struct {
	Clarity    float64 `json:"clarity_similarity"`
	Confidence float64 `json:"confidence_similarity"`
	Overall    float64 `json:"overall_similarity"`
}

// ComparisonText is the narrative half of a comparison.
type ComparisonText struct {
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	AreasToImprove []string `json:"areas_to_improve"`
	SpecificAdvice string   `json:"specific_advice"`
}

// ComparisonPayload is the full compare-with-professional reply.
type ComparisonPayload struct {
	Professional     ProfessionalSpeech `json:"professional_speech"`
	Comparison       ComparisonText     `json:"comparison"`
	Similarity       SimilarityScores   `json:"similarity_scores"`
	ImprovementAreas []string           `json:"improvement_areas,omitempty"`
	ProfessionalTips []string           `json:"professional_tips,omitempty"`
	IsMock           bool               `json:"is_mock"`
}

// MeetingTemplate describes one virtual-meeting practice scenario.
type MeetingTemplate struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Platform     string   `json:"platform"`
	Duration     string   `json:"duration"`
	Participants int      `json:"participants"`
	Scenario     string   `json:"scenario"`
	Prompts      []string `json:"prompts,omitempty"`
}

// MeetingPayload is the meeting-readiness analysis reply.
type MeetingPayload struct {
	MeetingType      string   `json:"meeting_type"`
	Platform         string   `json:"platform"`
	Scenario         string   `json:"scenario"`
	PerformanceScore float64  `json:"performance_score"`
	Feedback         []string `json:"feedback"`
	PlatformTips     []string `json:"platform_specific_tips"`
	IsMock           bool     `json:"is_mock"`
}

// QuickAnalysis is the inline per-turn feedback attached to AI turns.
type QuickAnalysis struct {
	ConfidenceScore float64 `json:"confidence_score"`
	ClarityScore    float64 `json:"clarity_score"`
	Pace            string  `json:"pace"`
	Suggestion      string  `json:"suggestion"`
}

// Turn is one utterance in the conversation history.
type Turn struct {
	Speaker       string         `json:"speaker"` // "user" or "ai"
	Text          string         `json:"text"`
	Timestamp     time.Time      `json:"timestamp"`
	Tips          []string       `json:"tips,omitempty"`
	QuickAnalysis *QuickAnalysis `json:"quick_analysis,omitempty"`
}

// WelcomePayload is the conversation-start reply.
type WelcomePayload struct {
	Message string   `json:"message"`
	Tips    []string `json:"tips,omitempty"`
}

// ReplyPayload is the coach's answer to one user message.
type ReplyPayload struct {
	Text          string         `json:"text"`
	CoachName     string         `json:"coach_name,omitempty"`
	Tips          []string       `json:"coaching_tips,omitempty"`
	QuickAnalysis *QuickAnalysis `json:"quick_analysis,omitempty"`
}

// Topic is one suggested conversation practice topic.
type Topic struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// Voice is one coach voice identity from the synthesis provider.
type Voice struct {
	ID         string `json:"voice_id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}
