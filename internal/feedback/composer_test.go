package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/store"
)

func TestComposeWithoutAnalysis(t *testing.T) {
	c := NewComposer(store.NewMemory())

	got := c.Compose(context.Background())
	if got != AnalyzeFirstPrompt {
		t.Errorf("Compose = %q, want the analyze-first prompt", got)
	}
}

func TestComposeAnalysisOnly(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	kv.Set(ctx, store.KeyAnalysisResult, remote.AnalysisPayload{
		ClarityScore:           8,
		ConfidenceScore:        7,
		FillerWordsCount:       2,
		ImprovementSuggestions: []string{"Slow down", "Pause more"},
	})

	got := NewComposer(kv).Compose(ctx)

	for _, want := range []string{"8", "7", "2", "Slow down"} {
		if !strings.Contains(got, want) {
			t.Errorf("Compose missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "similarity") {
		t.Errorf("no comparison sentence expected: %q", got)
	}
	if strings.Contains(got, "performance score") {
		t.Errorf("no meeting sentence expected: %q", got)
	}
	if strings.Contains(got, "Pause more") {
		t.Errorf("only the top suggestion should be spoken: %q", got)
	}
}

func TestComposeAppendsComparison(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	kv.Set(ctx, store.KeyAnalysisResult, remote.AnalysisPayload{
		ClarityScore: 8, ConfidenceScore: 7, FillerWordsCount: 2,
		ImprovementSuggestions: []string{"Slow down"},
	})
	kv.Set(ctx, store.KeyComparisonResult, remote.ComparisonPayload{
		Professional: remote.ProfessionalSpeech{Speaker: "Jane Doe"},
		Similarity:   remote.SimilarityScores{Overall: 82.0},
	})

	got := NewComposer(kv).Compose(ctx)

	if !strings.Contains(got, "Jane Doe") {
		t.Errorf("comparison sentence missing speaker: %q", got)
	}
	if !strings.Contains(got, "82") {
		t.Errorf("comparison sentence missing score: %q", got)
	}
	if strings.Contains(got, "82.0") {
		t.Errorf("trailing zero should be trimmed: %q", got)
	}
}

func TestComposeAppendsMeeting(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	kv.Set(ctx, store.KeyAnalysisResult, remote.AnalysisPayload{
		ClarityScore: 6, ConfidenceScore: 5, FillerWordsCount: 1,
		ImprovementSuggestions: []string{"Breathe"},
	})
	kv.Set(ctx, store.KeyMeetingResult, remote.MeetingPayload{
		MeetingType:      "Weekly Team Sync",
		PerformanceScore: 7.5,
	})

	got := NewComposer(kv).Compose(ctx)

	if !strings.Contains(got, "Weekly Team Sync") || !strings.Contains(got, "7.5") {
		t.Errorf("meeting sentence missing: %q", got)
	}
}

func TestComposeFixedOrder(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	kv.Set(ctx, store.KeyAnalysisResult, remote.AnalysisPayload{
		ClarityScore: 8, ConfidenceScore: 7, FillerWordsCount: 0,
		ImprovementSuggestions: []string{"Slow down"},
	})
	kv.Set(ctx, store.KeyComparisonResult, remote.ComparisonPayload{
		Professional: remote.ProfessionalSpeech{Speaker: "Steve Jobs"},
		Similarity:   remote.SimilarityScores{Overall: 74.2},
	})
	kv.Set(ctx, store.KeyMeetingResult, remote.MeetingPayload{
		MeetingType: "Virtual Job Interview", PerformanceScore: 8,
	})

	got := NewComposer(kv).Compose(ctx)

	clarityAt := strings.Index(got, "clarity")
	comparisonAt := strings.Index(got, "Steve Jobs")
	meetingAt := strings.Index(got, "Virtual Job Interview")

	if !(clarityAt < comparisonAt && comparisonAt < meetingAt) {
		t.Errorf("sections out of order: %q", got)
	}

	// Deterministic: same inputs, same text.
	if again := NewComposer(kv).Compose(ctx); again != got {
		t.Error("Compose must be deterministic")
	}
}
