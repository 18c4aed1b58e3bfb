package weibo

import (
	"encoding/json"
	"strings"

	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/sharetext"
)

const HelperEndpoint = "/api/weibo/client-helper"

// ClientData is what the in-page helper script scraped from an open post.
type ClientData struct {
	Text        string                  `json:"text"`
	Images      []string                `json:"images"`
	Engagement  model.PartialEngagement `json:"engagement"`
	PublishedAt any                     `json:"publishedAt,omitempty"`
}

type HelperRequest struct {
	URL        string      `json:"url" validate:"required,url"`
	ClientData *ClientData `json:"clientData,omitempty"`
}

// HelperResponse carries either the ingested post or the script to run.
type HelperResponse struct {
	Success      bool            `json:"success"`
	Data         *cascade.Result `json:"data,omitempty"`
	Script       string          `json:"script,omitempty"`
	Instructions []string        `json:"instructions,omitempty"`
}

var helperInstructions = []string{
	"Open the Weibo post while logged in",
	"Open the browser console (F12)",
	"Paste the script and press Enter",
	"The post data is sent back automatically",
}

// ClientHelper ingests client-side data when present, otherwise hands out
// the extraction script.
func ClientHelper(req HelperRequest) (HelperResponse, error) {
	if !strings.HasPrefix(req.URL, "http") {
		return HelperResponse{}, scrape.NewInvalidInputError("weibo", req.URL, "url is required")
	}
	if req.ClientData == nil {
		return HelperResponse{
			Success:      true,
			Script:       HelperScript(req.URL),
			Instructions: helperInstructions,
		}, nil
	}
	res := IngestClientData(req.URL, *req.ClientData)
	return HelperResponse{Success: true, Data: &res}, nil
}

// IngestClientData turns helper output into a fetch result.
func IngestClientData(postURL string, data ClientData) cascade.Result {
	text := sharetext.CollapseSpace(data.Text)
	media := make([]model.MediaItem, 0, len(data.Images))
	for _, src := range data.Images {
		if strings.TrimSpace(src) == "" {
			continue
		}
		media = append(media, model.NewImage(largeFromThumb(src)))
	}
	media = model.DedupeMedia(media)
	res := cascade.Result{
		Success:          true,
		Platform:         model.PlatformWeibo,
		SourceURL:        postURL,
		Text:             text,
		Media:            media,
		PublishedAt:      sharetext.ParseLoose(data.PublishedAt),
		ExtractionMethod: "client_helper",
		Hashtags:         sharetext.Hashtags(text),
		ContentType:      model.ContentTypeOf(media),
		Attempts:         []cascade.Attempt{},
	}
	if res.PublishedAt == nil {
		res.PublishedAt = sharetext.DateStamp(text)
	}
	if !data.Engagement.IsEmpty() {
		c := data.Engagement.Counts()
		res.Engagement = &c
	}
	return res
}

// HelperScript is run in the console of an open Weibo post. It scrapes the
// text, images and counts and posts them back to the helper endpoint.
func HelperScript(postURL string) string {
	return strings.NewReplacer(
		"__POST_URL__", jsString(postURL),
		"__ENDPOINT__", jsString(HelperEndpoint),
	).Replace(helperScript)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const helperScript = `(function () {
  var textSelectors = ['.WB_text', '.weibo-text', '.txt', '[class*="text"]'];
  var text = '';
  textSelectors.forEach(function (sel) {
    document.querySelectorAll(sel).forEach(function (el) {
      var t = (el.innerText || '').trim();
      if (t.length > text.length) { text = t; }
    });
  });
  var images = [];
  document.querySelectorAll('img[src*="sinaimg.cn"], img[src*="weibo.com"]').forEach(function (img) {
    if (images.indexOf(img.src) < 0) { images.push(img.src); }
  });
  var body = document.body.innerText || '';
  function count(re) {
    var m = body.match(re);
    return m ? parseInt(m[1].replace(/,/g, ''), 10) : undefined;
  }
  var engagement = {
    likes: count(/(\d[\d,]*)\s*赞/),
    comments: count(/(\d[\d,]*)\s*评论/),
    shares: count(/(\d[\d,]*)\s*转发/)
  };
  var timeEl = document.querySelector('time, .time, [class*="time"]');
  fetch(__ENDPOINT__, {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({
      url: __POST_URL__,
      clientData: {
        text: text,
        images: images,
        engagement: engagement,
        publishedAt: timeEl ? (timeEl.getAttribute('datetime') || timeEl.innerText) : null
      }
    })
  }).then(function (r) { return r.json(); }).then(function (d) { console.log('weibo helper', d); });
})();`
