// Package cascade runs a platform's content-resolution strategies in a fixed
// priority order and merges whatever they recovered into one result.
package cascade

import (
	"context"
	"time"

	"fan-feed-go/internal/model"
)

type State string

const (
	StateMobileJSON        State = "mobile_json"
	StateRSS               State = "rss"
	StateBrowser           State = "browser_automation"
	StateStructuredResolve State = "structured_url_resolve"
	StateShareTextOnly     State = "share_text_only"
	StateManualAssistant   State = "manual_assistant"
)

// Order is the fixed priority of states. Pipelines may skip states, never
// reorder them.
var Order = []State{
	StateMobileJSON,
	StateRSS,
	StateBrowser,
	StateStructuredResolve,
	StateShareTextOnly,
	StateManualAssistant,
}

func rank(s State) int {
	for i, o := range Order {
		if o == s {
			return i
		}
	}
	return len(Order)
}

// Input is shared by every attempt of one run. Strategies may fill in ids
// they discover, such as a post id behind a short link.
type Input struct {
	Platform  model.Platform
	URL       string
	ShareText string
	Hint      model.ShareHint
	PostID    string
	UID       string
}

// Outcome is what one strategy recovered. Text decides acceptance; the rest
// is kept for merging even when the attempt is rejected.
type Outcome struct {
	State       State
	Text        string
	Title       string
	Author      string
	SourceURL   string
	Media       []model.MediaItem
	PublishedAt *time.Time
	Engagement  model.PartialEngagement
	ContentType model.ContentType
	Method      model.ExtractionMethod
	Resolved    *model.ResolvedMetadata
	Err         error
}

type Strategy interface {
	Name() State
	Attempt(ctx context.Context, in *Input) Outcome
}

// Timeouter lets a strategy ask for a budget other than the default.
type Timeouter interface {
	Timeout() time.Duration
}

type funcStrategy struct {
	state State
	fn    func(ctx context.Context, in *Input) Outcome
}

func (f funcStrategy) Name() State { return f.state }

func (f funcStrategy) Attempt(ctx context.Context, in *Input) Outcome { return f.fn(ctx, in) }

// Func adapts a function to a Strategy.
func Func(state State, fn func(ctx context.Context, in *Input) Outcome) Strategy {
	return funcStrategy{state: state, fn: fn}
}

type Attempt struct {
	Strategy   State  `json:"strategy"`
	Outcome    string `json:"outcome"`
	TextLength int    `json:"textLength"`
	ElapsedMS  int64  `json:"elapsedMs"`
	ErrorKind  string `json:"errorKind,omitempty"`
}

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Result is the normalized payload returned by the fetch entry points.
type Result struct {
	Success          bool                         `json:"success"`
	Platform         model.Platform               `json:"platform"`
	SourceURL        string                       `json:"sourceUrl"`
	Text             string                       `json:"text"`
	Media            []model.MediaItem            `json:"media"`
	PublishedAt      *time.Time                   `json:"publishedAt,omitempty"`
	Engagement       *model.EngagementCounts      `json:"engagement,omitempty"`
	ExtractionMethod string                       `json:"extractionMethod"`
	Hashtags         []string                     `json:"hashtags"`
	Title            string                       `json:"title,omitempty"`
	Author           string                       `json:"author,omitempty"`
	ContentType      model.ContentType            `json:"contentType"`
	Attempts         []Attempt                    `json:"attempts"`
	ManualAssistant  *ManualAssistantInstructions `json:"manualAssistant,omitempty"`
	Message          string                       `json:"message,omitempty"`
}
