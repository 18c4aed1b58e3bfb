package douyin

import (
	"strings"

	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"
)

type urlList struct {
	URLList []string `json:"url_list"`
}

func (u urlList) first() string {
	for _, s := range u.URLList {
		if s = strings.TrimSpace(s); s != "" {
			return model.NormalizeMediaURL(s)
		}
	}
	return ""
}

// VideoDetail is one aweme as the item-info API returns it. Image posts
// carry Images instead of a playable video.
type VideoDetail struct {
	AwemeID    string `json:"aweme_id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"create_time"`
	AwemeType  int    `json:"aweme_type"`
	Author     struct {
		SecUID   string `json:"sec_uid"`
		Nickname string `json:"nickname"`
		UID      string `json:"uid"`
	} `json:"author"`
	Statistics struct {
		CommentCount int64 `json:"comment_count"`
		DiggCount    int64 `json:"digg_count"`
		CollectCount int64 `json:"collect_count"`
		ShareCount   int64 `json:"share_count"`
		PlayCount    int64 `json:"play_count"`
	} `json:"statistics"`
	Video struct {
		PlayAddr    urlList `json:"play_addr"`
		Cover       urlList `json:"cover"`
		OriginCover urlList `json:"origin_cover"`
	} `json:"video"`
	Images []urlList `json:"images"`
}

// ItemInfoResponse covers both list keys the endpoints have used.
type ItemInfoResponse struct {
	StatusCode int           `json:"status_code"`
	ItemList   []VideoDetail `json:"item_list"`
	AwemeList  []VideoDetail `json:"aweme_list"`
}

func (r ItemInfoResponse) First() (VideoDetail, bool) {
	for _, list := range [][]VideoDetail{r.ItemList, r.AwemeList} {
		if len(list) > 0 {
			return list[0], true
		}
	}
	return VideoDetail{}, false
}

func (v VideoDetail) PageURL() string {
	if v.AwemeID == "" {
		return ""
	}
	return "https://www.douyin.com/video/" + v.AwemeID
}

func (v VideoDetail) Media() []model.MediaItem {
	var out []model.MediaItem
	for _, img := range v.Images {
		if u := img.first(); u != "" {
			out = append(out, model.NewImage(u))
		}
	}
	cover := v.Video.Cover.first()
	if cover == "" {
		cover = v.Video.OriginCover.first()
	}
	if play := v.Video.PlayAddr.first(); play != "" && len(v.Images) == 0 {
		out = append(out, model.NewVideo(play, cover))
	} else if cover != "" && len(out) == 0 {
		out = append(out, model.NewImage(cover))
	}
	return model.DedupeMedia(out)
}

// Outcome maps the aweme onto a cascade outcome. Counts are always present in
// the API, so they are all reported.
func (v VideoDetail) Outcome() cascade.Outcome {
	media := v.Media()
	ct := model.ContentTypeOf(media)
	if len(v.Images) == 0 && v.Video.PlayAddr.first() != "" {
		ct = model.ContentVideo
	}
	out := cascade.Outcome{
		Text:        sharetext.CollapseSpace(v.Desc),
		Author:      strings.TrimSpace(v.Author.Nickname),
		SourceURL:   v.PageURL(),
		Media:       media,
		ContentType: ct,
		Engagement: model.PartialEngagement{
			Likes:    nonNegative(v.Statistics.DiggCount),
			Comments: nonNegative(v.Statistics.CommentCount),
			Shares:   nonNegative(v.Statistics.ShareCount),
		},
	}
	out.PublishedAt = sharetext.ParseLoose(v.CreateTime)
	return out
}

func nonNegative(n int64) *uint64 {
	if n < 0 {
		return nil
	}
	return model.Count(uint64(n))
}
