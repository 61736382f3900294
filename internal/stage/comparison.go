package stage

import (
	"context"
	"math"
	"time"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/syncx"
)

// ProfessionalCatalog is the built-in speaker catalog, used when the
// remote catalog is unreachable and as the ground truth for synthetic
// comparisons.
func ProfessionalCatalog() []remote.ProfessionalSpeech {
	return []remote.ProfessionalSpeech{
		{
			ID:         "ted_001",
			Title:      "Steve Jobs - Stanford Commencement",
			Speaker:    "Steve Jobs",
			Category:   "Motivational",
			SampleText: "Your time is limited, so don't waste it living someone else's life... Stay hungry, stay foolish.",
			Metrics: remote.ProfessionalMetrics{
				ClarityScore: 9.5, ConfidenceScore: 9.8, Pace: "medium", FillerWordsPerMinute: 0.5,
			},
			Tags: []string{"leadership", "inspiration", "career"},
		},
		{
			ID:         "ted_002",
			Title:      "How Great Leaders Inspire Action",
			Speaker:    "Simon Sinek",
			Category:   "Leadership",
			SampleText: "People don't buy what you do, they buy why you do it...",
			Metrics: remote.ProfessionalMetrics{
				ClarityScore: 9.2, ConfidenceScore: 9.3, Pace: "slow", FillerWordsPerMinute: 0.8,
			},
			Tags: []string{"business", "leadership", "communication"},
		},
		{
			ID:         "political_001",
			Title:      "I Have a Dream",
			Speaker:    "Martin Luther King Jr.",
			Category:   "Historic",
			SampleText: "I have a dream that my four little children will one day live in a nation where they will not be judged by the color of their skin but by the content of their character.",
			Metrics: remote.ProfessionalMetrics{
				ClarityScore: 9.8, ConfidenceScore: 9.9, Pace: "medium", FillerWordsPerMinute: 0.2,
			},
			Tags: []string{"historic", "inspiration", "social"},
		},
		{
			ID:         "business_001",
			Title:      "The Power of Vulnerability",
			Speaker:    "Brené Brown",
			Category:   "Psychology",
			SampleText: "Vulnerability is not winning or losing; it's having the courage to show up and be seen when we have no control over the outcome.",
			Metrics: remote.ProfessionalMetrics{
				ClarityScore: 9.0, ConfidenceScore: 8.8, Pace: "medium", FillerWordsPerMinute: 1.2,
			},
			Tags: []string{"psychology", "authenticity", "human"},
		},
	}
}

// speakerTips maps each catalog speaker to style-specific advice.
var speakerTips = map[string][]string{
	"Steve Jobs": {
		"Use dramatic pauses for emphasis",
		"Tell personal stories to connect",
		"Repeat key phrases for impact",
	},
	"Simon Sinek": {
		"Start with 'Why' before 'What'",
		"Use simple, powerful visuals",
		"Speak slowly to emphasize points",
	},
	"Martin Luther King Jr.": {
		"Use rhythmic repetition",
		"Build to emotional climax",
		"Speak with conviction and passion",
	},
	"Brené Brown": {
		"Be vulnerable and authentic",
		"Use personal anecdotes",
		"Maintain conversational tone",
	},
}

// CompareInput carries one transcript plus an optional catalog speaker id.
type CompareInput struct {
	Text           string
	ProfessionalID string
}

// Comparison is the compare-with-professional stage.
type Comparison = Client[CompareInput, remote.ComparisonPayload]

// NewComparison builds the comparison stage client.
func NewComparison(api *remote.Client, epoch *syncx.Epoch, timeout time.Duration) *Comparison {
	return NewClient("comparison", timeout, epoch,
		func(ctx context.Context, in CompareInput) (remote.ComparisonPayload, error) {
			return api.Compare(ctx, in.Text, in.ProfessionalID)
		},
		syntheticComparison)
}

func syntheticComparison(in CompareInput) remote.ComparisonPayload {
	catalog := ProfessionalCatalog()
	pro := catalog[0]
	for _, p := range catalog {
		if p.ID == in.ProfessionalID {
			pro = p
			break
		}
	}

	user := syntheticAnalysis(in.Text)
	return remote.ComparisonPayload{
		Professional: pro,
		Comparison: remote.ComparisonText{
			Summary:        "Your speech shows good potential with room to grow",
			Strengths:      []string{"Clear message", "Good energy"},
			AreasToImprove: []string{"More dramatic pauses", "Stronger opening"},
			SpecificAdvice: "Try pausing before key points like " + pro.Speaker + " does",
		},
		Similarity:       similarityScores(user, pro.Metrics),
		ImprovementAreas: improvementAreas(user, pro.Metrics),
		ProfessionalTips: speakerTips[pro.Speaker],
		IsMock:           true,
	}
}

// similarityScores expresses the user's scores as a percentage of the
// professional's, weighting clarity and confidence at 40% each and
// filler-word discipline at 20%.
func similarityScores(user remote.AnalysisPayload, pro remote.ProfessionalMetrics) remote.SimilarityScores {
	clarity := user.ClarityScore / pro.ClarityScore
	confidence := user.ConfidenceScore / pro.ConfidenceScore
	fillerDiscipline := 1 - math.Min(float64(user.FillerWordsCount)/10, 1)

	return remote.SimilarityScores{
		Clarity:    round1(clarity * 100),
		Confidence: round1(confidence * 100),
		Overall:    round1((clarity*0.4 + confidence*0.4 + fillerDiscipline*0.2) * 100),
	}
}

func improvementAreas(user remote.AnalysisPayload, pro remote.ProfessionalMetrics) []string {
	var areas []string
	if user.ClarityScore < pro.ClarityScore-2 {
		areas = append(areas, "Clarity & articulation")
	}
	if user.ConfidenceScore < pro.ConfidenceScore-2 {
		areas = append(areas, "Confidence & conviction")
	}
	if user.FillerWordsCount > 3 {
		areas = append(areas, "Reducing filler words")
	}
	if user.Pace == "fast" && pro.Pace == "slow" {
		areas = append(areas, "Pacing & pauses")
	}
	if len(areas) > 3 {
		areas = areas[:3]
	}
	return areas
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
