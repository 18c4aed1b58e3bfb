package model

import "time"

// ShareHint is what a pasted share string reveals without any network call.
type ShareHint struct {
	Title          string     `json:"title,omitempty"`
	Author         string     `json:"author,omitempty"`
	NoteOrVideoID  string     `json:"noteOrVideoId,omitempty"`
	CanonicalURL   string     `json:"canonicalUrl,omitempty"`
	Hashtags       []string   `json:"hashtags"`
	RawDescription string     `json:"rawDescription,omitempty"`
	OriginalText   string     `json:"originalText,omitempty"`
	PublishDate    *time.Time `json:"publishDate,omitempty"`
	LooksLikeVideo bool       `json:"looksLikeVideo"`
}

func EmptyHint() ShareHint {
	return ShareHint{Hashtags: []string{}}
}

type ContentType string

const (
	ContentImage   ContentType = "image"
	ContentVideo   ContentType = "video"
	ContentMixed   ContentType = "mixed"
	ContentUnknown ContentType = "unknown"
)

type ExtractionMethod string

const (
	ExtractionStructuredJSON ExtractionMethod = "structured-json"
	ExtractionMetaTags       ExtractionMethod = "meta-tags"
	ExtractionNone           ExtractionMethod = "none"
)

// ResolvedMetadata is what following a URL yielded. ResolvedURL is always
// set; every other field is best effort.
type ResolvedMetadata struct {
	ResolvedURL      string            `json:"resolvedUrl"`
	Title            string            `json:"title,omitempty"`
	Author           string            `json:"author,omitempty"`
	Description      string            `json:"description,omitempty"`
	PublishedAt      *time.Time        `json:"publishedAt,omitempty"`
	ThumbnailURL     string            `json:"thumbnailUrl,omitempty"`
	ContentType      ContentType       `json:"contentType"`
	ExtractionMethod ExtractionMethod  `json:"extractionMethod"`
	Engagement       PartialEngagement `json:"engagement"`
	Media            []MediaItem       `json:"media,omitempty"`
}

func Unresolved(inputURL string) ResolvedMetadata {
	return ResolvedMetadata{
		ResolvedURL:      inputURL,
		ContentType:      ContentUnknown,
		ExtractionMethod: ExtractionNone,
	}
}

// ContentTypeOf derives a content type from media kinds alone.
func ContentTypeOf(items []MediaItem) ContentType {
	var images, videos int
	for _, it := range items {
		switch it.Kind {
		case MediaVideo:
			videos++
		case MediaImage:
			images++
		}
	}
	switch {
	case images > 0 && videos > 0:
		return ContentMixed
	case videos > 0:
		return ContentVideo
	case images > 0:
		return ContentImage
	}
	return ContentUnknown
}
