package cascade

import (
	"fan-feed-go/internal/model"
)

// ManualGuide is a platform's copy-paste walkthrough for entering a post by
// hand.
type ManualGuide struct {
	Steps []string
	Tips  map[string]string
}

type RecoveredHints struct {
	URL     string          `json:"url,omitempty"`
	PostID  string          `json:"postId,omitempty"`
	Hint    model.ShareHint `json:"hint"`
	Partial Partial         `json:"partial"`
}

// Partial is what the rejected attempts still recovered.
type Partial struct {
	Text       string                  `json:"text,omitempty"`
	Media      []model.MediaItem       `json:"media"`
	Engagement model.PartialEngagement `json:"engagement"`
}

type ManualAssistantInstructions struct {
	Steps          []string          `json:"steps"`
	Tips           map[string]string `json:"tips,omitempty"`
	RecoveredHints RecoveredHints    `json:"recoveredHints"`
}

var defaultGuide = ManualGuide{
	Steps: []string{
		"Open the post link in a browser or the app",
		"Copy the full post text",
		"Copy the address of each image or the video link",
		"Note the like, comment and share counts",
		"Set the publish date shown on the post",
	},
}

func manualInstructions(guide ManualGuide, in Input, merged Merged) *ManualAssistantInstructions {
	if len(guide.Steps) == 0 {
		guide = defaultGuide
	}
	media := merged.Media
	if media == nil {
		media = []model.MediaItem{}
	}
	url := in.URL
	if url == "" {
		url = merged.SourceURL
	}
	return &ManualAssistantInstructions{
		Steps: append([]string(nil), guide.Steps...),
		Tips:  guide.Tips,
		RecoveredHints: RecoveredHints{
			URL:    url,
			PostID: in.PostID,
			Hint:   in.Hint,
			Partial: Partial{
				Text:       merged.Text,
				Media:      media,
				Engagement: merged.Engagement,
			},
		},
	}
}
