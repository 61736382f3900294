package stage

import (
	"context"
	"strings"
	"time"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/syncx"
)

var fillerWords = map[string]bool{
	"um": true, "uh": true, "like": true, "so": true,
	"actually": true, "basically": true,
}

// Analysis is the coaching-analysis stage.
type Analysis = Client[string, remote.AnalysisPayload]

// NewAnalysis builds the analysis stage client. The fallback derives
// scores from the transcript itself so repeated degraded runs over the
// same text stay consistent.
func NewAnalysis(api *remote.Client, epoch *syncx.Epoch, timeout time.Duration) *Analysis {
	return NewClient("analysis", timeout, epoch,
		func(ctx context.Context, text string) (remote.AnalysisPayload, error) {
			return api.Analyze(ctx, text)
		},
		syntheticAnalysis)
}

func syntheticAnalysis(text string) remote.AnalysisPayload {
	words := strings.Fields(text)

	var fillers []string
	for _, w := range words {
		if fillerWords[strings.ToLower(strings.Trim(w, ".,!?"))] {
			fillers = append(fillers, w)
		}
	}

	pace := "medium"
	if len(words) >= 100 {
		pace = "fast"
	}

	listed := fillers
	if len(listed) > 3 {
		listed = listed[:3]
	}

	return remote.AnalysisPayload{
		ClarityScore:     min(9, float64(len(words)/10+5)),
		ConfidenceScore:  min(8, float64(len(words)/15+4)),
		FillerWordsCount: len(fillers),
		FillerWordsList:  listed,
		Pace:             pace,
		WordCount:        len(words),
		KeyFeedback: []string{
			"Good content structure",
			"Could use more vocal variety",
			"Strong opening statement",
		},
		ImprovementSuggestions: []string{
			"Practice pausing for emphasis",
			"Reduce filler words",
			"Use more descriptive language",
		},
		IsMock: true,
	}
}
