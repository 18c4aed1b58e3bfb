package model

import "time"

const (
	SourceManualVerified = "manual_verified"
	SourceAutoVerified   = "auto_verified"
	SourceRSSFeed        = "rss_feed"
)

type Post struct {
	ID                  string           `json:"id" bson:"_id"`
	Platform            Platform         `json:"platform" bson:"platform"`
	Text                string           `json:"text" bson:"text"`
	OriginalText        string           `json:"originalText,omitempty" bson:"original_text,omitempty"`
	Media               []MediaItem      `json:"media" bson:"media"`
	SourceURL           string           `json:"sourceUrl" bson:"source_url"`
	PublishedAt         time.Time        `json:"publishedAt" bson:"published_at"`
	Engagement          EngagementCounts `json:"engagement" bson:"engagement"`
	EngagementUpdatedAt *time.Time       `json:"engagementUpdatedAt,omitempty" bson:"engagement_updated_at,omitempty"`
	Verified            bool             `json:"verified" bson:"verified"`
	Source              string           `json:"source,omitempty" bson:"source,omitempty"`
	AddedAt             time.Time        `json:"addedAt" bson:"added_at"`
	// Seq orders posts by insertion; retention evicts the lowest.
	Seq int64 `json:"seq" bson:"seq"`
}

// PostDraft is the admin-supplied content of a post.
type PostDraft struct {
	Platform     string           `json:"platform" validate:"required,oneof=weibo douyin xhs red rednotes instagram sohu"`
	Text         string           `json:"text" validate:"required"`
	OriginalText string           `json:"originalText"`
	Media        []MediaItem      `json:"media" validate:"dive"`
	SourceURL    string           `json:"sourceUrl" validate:"required,url"`
	PublishedAt  *time.Time       `json:"publishedAt" validate:"required"`
	Engagement   EngagementCounts `json:"engagement"`
	Verified     *bool            `json:"verified"`
	Source       string           `json:"source"`
}
