package xhs

import (
	"encoding/json"
	"strings"

	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"
)

// Note is a note as the web app's initial state embeds it.
type Note struct {
	NoteID       string   `json:"noteId"`
	Title        string   `json:"title"`
	Desc         string   `json:"desc"`
	Type         string   `json:"type"`
	Time         any      `json:"time"`
	User         User     `json:"user"`
	ImageList    []Image  `json:"imageList"`
	Video        Video    `json:"video"`
	TagList      []Tag    `json:"tagList"`
	InteractInfo Interact `json:"interactInfo"`
}

type User struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

type Image struct {
	URLDefault string `json:"urlDefault"`
	URL        string `json:"url"`
	InfoList   []struct {
		ImageScene string `json:"imageScene"`
		URL        string `json:"url"`
	} `json:"infoList"`
}

func (i Image) best() string {
	if i.URLDefault != "" {
		return i.URLDefault
	}
	if i.URL != "" {
		return i.URL
	}
	for _, info := range i.InfoList {
		if info.URL != "" {
			return info.URL
		}
	}
	return ""
}

type Video struct {
	Media struct {
		Stream map[string][]StreamItem `json:"stream"`
	} `json:"media"`
}

type StreamItem struct {
	MasterURL string `json:"masterUrl"`
}

// playURL prefers h264 since it plays everywhere.
func (v Video) playURL() string {
	for _, codec := range []string{"h264", "h265", "av1"} {
		for _, s := range v.Media.Stream[codec] {
			if s.MasterURL != "" {
				return s.MasterURL
			}
		}
	}
	return ""
}

type Tag struct {
	Name string `json:"name"`
}

// Interact counts are display strings such as "1.2万".
type Interact struct {
	LikedCount     string `json:"likedCount"`
	CollectedCount string `json:"collectedCount"`
	CommentCount   string `json:"commentCount"`
	ShareCount     string `json:"shareCount"`
}

func (i Interact) Engagement() model.PartialEngagement {
	return model.PartialEngagement{
		Likes:    count(i.LikedCount),
		Comments: count(i.CommentCount),
		Shares:   count(i.ShareCount),
	}
}

func count(s string) *uint64 {
	n, ok := extract.ParseCount(s)
	if !ok {
		return nil
	}
	return model.Count(n)
}

// noteFromMap re-decodes a state object into a Note.
func noteFromMap(obj map[string]any) (Note, bool) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return Note{}, false
	}
	var n Note
	if err := json.Unmarshal(raw, &n); err != nil {
		return Note{}, false
	}
	return n, true
}

func (n Note) Media() []model.MediaItem {
	var out []model.MediaItem
	cover := ""
	for _, img := range n.ImageList {
		u := model.NormalizeMediaURL(img.best())
		if u == "" {
			continue
		}
		if cover == "" {
			cover = u
		}
		if n.Type != "video" {
			out = append(out, model.NewImage(u))
		}
	}
	if play := n.Video.playURL(); play != "" {
		out = append(out, model.NewVideo(play, cover))
	} else if n.Type == "video" && n.NoteID != "" {
		out = append(out, model.NewVideoFrame("https://www.xiaohongshu.com/explore/"+n.NoteID, cover))
	}
	return model.DedupeMedia(out)
}

// Metadata maps the note onto resolved metadata.
func (n Note) Metadata() (model.ResolvedMetadata, bool) {
	title := strings.TrimSpace(n.Title)
	desc := sharetext.CollapseSpace(n.Desc)
	if title == "" && desc == "" {
		return model.ResolvedMetadata{}, false
	}
	media := n.Media()
	md := model.ResolvedMetadata{
		Title:       title,
		Author:      strings.TrimSpace(n.User.Nickname),
		Description: desc,
		PublishedAt: sharetext.ParseLoose(n.Time),
		Engagement:  n.InteractInfo.Engagement(),
		Media:       media,
		ContentType: model.ContentTypeOf(media),
	}
	if n.Type == "video" {
		md.ContentType = model.ContentVideo
	}
	for _, it := range media {
		if it.Kind == model.MediaImage {
			md.ThumbnailURL = it.SourceURL
			break
		}
		if it.PosterURL != "" {
			md.ThumbnailURL = it.PosterURL
			break
		}
	}
	return md, true
}
