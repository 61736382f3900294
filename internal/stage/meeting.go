package stage

import (
	"context"
	"time"

	"github.com/vocalcoach/platform/internal/remote"
	"github.com/vocalcoach/platform/internal/syncx"
)

// MeetingTemplates is the built-in virtual-meeting scenario catalog.
func MeetingTemplates() []remote.MeetingTemplate {
	return []remote.MeetingTemplate{
		{
			ID: "team_meeting", Title: "Weekly Team Sync", Platform: "Zoom",
			Duration: "30 min", Participants: 8,
			Scenario: "Presenting project updates to your team",
			Prompts: []string{
				"Good morning team, let's start with updates...",
				"My project is on track, this week we completed...",
				"The main challenge we're facing is...",
				"For next week, we'll focus on...",
			},
		},
		{
			ID: "client_presentation", Title: "Client Quarterly Review", Platform: "Teams",
			Duration: "45 min", Participants: 12,
			Scenario: "Presenting quarterly results to important clients",
			Prompts: []string{
				"Thank you for joining today's review...",
				"This quarter, we achieved 120% of our targets...",
				"Our key metrics show improvement in...",
				"Looking ahead to next quarter, we plan to...",
			},
		},
		{
			ID: "job_interview", Title: "Virtual Job Interview", Platform: "Zoom",
			Duration: "60 min", Participants: 3,
			Scenario: "Final round interview with company executives",
			Prompts: []string{
				"Thank you for this opportunity...",
				"In my previous role, I successfully...",
				"What excites me about this position is...",
				"My approach to challenges is...",
			},
		},
		{
			ID: "conference_talk", Title: "Virtual Conference Presentation", Platform: "Both",
			Duration: "20 min", Participants: 50,
			Scenario: "Presenting at an industry conference",
			Prompts: []string{
				"Hello everyone, thank you for joining...",
				"Today I'll be discussing an important trend...",
				"Let me share a case study that illustrates...",
				"In conclusion, I want to leave you with...",
			},
		},
	}
}

var platformTips = map[string][]string{
	"Zoom": {
		"Use Zoom's 'pin video' to focus on key participants",
		"Enable 'touch up my appearance' for better video quality",
		"Use virtual background to minimize distractions",
		"Mute when not speaking to avoid background noise",
	},
	"Teams": {
		"Use 'Together Mode' for more engaging meetings",
		"Enable live captions for accessibility",
		"Use 'Raise Hand' feature for structured discussions",
		"Share specific windows instead of entire screen",
	},
	"Both": {
		"Look at the camera, not your own video",
		"Use good lighting - face a window or use a lamp",
		"Position camera at eye level",
		"Use a headset for better audio quality",
	},
}

// PlatformTips returns speaking tips for a meeting platform.
func PlatformTips(platform string) []string {
	if tips, ok := platformTips[platform]; ok {
		return tips
	}
	return platformTips["Both"]
}

// MeetingInput carries one transcript plus a template id.
type MeetingInput struct {
	Text        string
	MeetingType string
}

// Meeting is the meeting-readiness analysis stage.
type Meeting = Client[MeetingInput, remote.MeetingPayload]

// NewMeeting builds the meeting-analysis stage client. The fallback
// scores within the 6.5-9.5 band through the shared seeded policy.
func NewMeeting(api *remote.Client, epoch *syncx.Epoch, timeout time.Duration, fb *Fallback) *Meeting {
	return NewClient("meeting", timeout, epoch,
		func(ctx context.Context, in MeetingInput) (remote.MeetingPayload, error) {
			return api.AnalyzeMeeting(ctx, in.Text, in.MeetingType)
		},
		func(in MeetingInput) remote.MeetingPayload {
			return syntheticMeeting(in, fb)
		})
}

func syntheticMeeting(in MeetingInput, fb *Fallback) remote.MeetingPayload {
	templates := MeetingTemplates()
	tpl := templates[0]
	for _, t := range templates {
		if t.ID == in.MeetingType {
			tpl = t
			break
		}
	}

	return remote.MeetingPayload{
		MeetingType:      tpl.Title,
		Platform:         tpl.Platform,
		Scenario:         tpl.Scenario,
		PerformanceScore: fb.Score(6.5, 9.5),
		Feedback: []string{
			"Your tone is appropriate for a " + tpl.Platform + " meeting",
			"Good structure for this scenario",
			"Consider using more visual language for virtual settings",
			"Practice maintaining eye contact with the camera",
		},
		PlatformTips: PlatformTips(tpl.Platform),
		IsMock:       true,
	}
}
