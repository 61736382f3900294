// Package feedback merges persisted coaching results into spoken text.
package feedback

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/store"
)

// AnalyzeFirstPrompt is returned when no analysis exists yet. The
// composer never fabricates scores.
const AnalyzeFirstPrompt = "I don't have an analysis for this session yet. " +
	"Record a practice speech and run the analysis first, then ask me again."

// Composer reads results from the store, never from in-memory state,
// since they may have been produced in a prior run.
type Composer struct {
	store store.KeyValueStore
}

// NewComposer creates a composer over the given store.
func NewComposer(kv store.KeyValueStore) *Composer {
	return &Composer{store: kv}
}

// Compose builds the spoken feedback text. It reads, in fixed order,
// the analysis, comparison, and meeting results; each section appears
// only when its slot holds a value.
func (c *Composer) Compose(ctx context.Context) string {
	var analysis remote.AnalysisPayload
	found, _ := c.store.Get(ctx, store.KeyAnalysisResult, &analysis)
	if !found {
		return AnalyzeFirstPrompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Great job on your practice speech! Your clarity score is %s out of 10. ",
		formatScore(analysis.ClarityScore))
	fmt.Fprintf(&b, "Your confidence score is %s out of 10. ",
		formatScore(analysis.ConfidenceScore))
	fmt.Fprintf(&b, "You used %d filler words. ", analysis.FillerWordsCount)

	if len(analysis.ImprovementSuggestions) > 0 {
		b.WriteString(analysis.ImprovementSuggestions[0])
	} else {
		b.WriteString("Keep practicing regularly!")
	}

	var comparison remote.ComparisonPayload
	if found, _ := c.store.Get(ctx, store.KeyComparisonResult, &comparison); found {
		fmt.Fprintf(&b, " Compared with %s, your overall similarity is %s percent.",
			comparison.Professional.Speaker, formatScore(comparison.Similarity.Overall))
	}

	var meeting remote.MeetingPayload
	if found, _ := c.store.Get(ctx, store.KeyMeetingResult, &meeting); found {
		fmt.Fprintf(&b, " For the %s scenario, your performance score is %s out of 10.",
			meeting.MeetingType, formatScore(meeting.PerformanceScore))
	}

	return b.String()
}

// formatScore renders a score without trailing zeros so the spoken
// text reads naturally (82.0 becomes "82").
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
