package browser

import (
	"net/url"
	"regexp"
	"strings"

	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Selectors name where a platform's rendered page keeps post text and
// images.
type Selectors struct {
	Text   []string
	Images []string
}

var DefaultSelectors = Selectors{
	Text: []string{
		".weibo-text", ".m-text-box", ".txt", ".status-content", ".feed-content",
		"#detail-desc", ".note-content", ".desc", `[class*="text"]`,
	},
	Images: []string{
		`img[src*="sinaimg.cn"]`, `img[src*="xhscdn.com"]`, `img[src*="douyinpic.com"]`,
		".pic img", ".media img", ".note-slider img",
	},
}

type PageResult struct {
	Title      string
	Text       string
	Media      []model.MediaItem
	Engagement model.PartialEngagement
}

var (
	// Counters sit on one line with their label, before or after it.
	likesRe    = []*regexp.Regexp{regexp.MustCompile(`([\d.,]+[万wWkK]?)[ ]*(?:赞|点赞)`), regexp.MustCompile(`(?:点赞|赞)[ ]*([\d.,]+[万wWkK]?)`)}
	commentsRe = []*regexp.Regexp{regexp.MustCompile(`([\d.,]+[万wWkK]?)[ ]*评论`), regexp.MustCompile(`评论[ ]*([\d.,]+[万wWkK]?)`)}
	sharesRe   = []*regexp.Regexp{regexp.MustCompile(`([\d.,]+[万wWkK]?)[ ]*(?:转发|分享)`), regexp.MustCompile(`(?:转发|分享)[ ]*([\d.,]+[万wWkK]?)`)}
)

// ScrapePage pulls the longest matching text block, platform images and
// engagement counters out of rendered HTML. When no selector matches, the
// readability extraction of the page body is used as text.
func ScrapePage(rendered, pageURL string, sel Selectors) PageResult {
	var out PageResult
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return out
	}
	out.Title = strings.TrimSpace(doc.Find("title").First().Text())

	for _, s := range sel.Text {
		doc.Find(s).Each(func(_ int, n *goquery.Selection) {
			txt := sharetext.CollapseSpace(n.Text())
			if sharetext.RuneLen(txt) > sharetext.RuneLen(out.Text) {
				out.Text = txt
			}
		})
	}
	if out.Text == "" {
		out.Text = readableText(rendered, pageURL)
	}

	var media []model.MediaItem
	for _, s := range sel.Images {
		doc.Find(s).Each(func(_ int, n *goquery.Selection) {
			src, _ := n.Attr("src")
			if src == "" {
				src, _ = n.Attr("data-src")
			}
			if src = strings.TrimSpace(src); src != "" && !strings.HasPrefix(src, "data:") {
				media = append(media, model.NewImage(src))
			}
		})
	}
	doc.Find("video").Each(func(_ int, n *goquery.Selection) {
		src, _ := n.Attr("src")
		if src == "" {
			src, _ = n.Find("source").First().Attr("src")
		}
		poster, _ := n.Attr("poster")
		if src = strings.TrimSpace(src); src != "" && !strings.HasPrefix(src, "blob:") {
			media = append(media, model.NewVideo(src, poster))
		}
	})
	out.Media = model.DedupeMedia(media)

	body := sharetext.CollapseSpace(doc.Find("body").Text())
	out.Engagement = model.PartialEngagement{
		Likes:    firstCount(body, likesRe),
		Comments: firstCount(body, commentsRe),
		Shares:   firstCount(body, sharesRe),
	}
	return out
}

func firstCount(body string, res []*regexp.Regexp) *uint64 {
	for _, re := range res {
		if m := re.FindStringSubmatch(body); len(m) == 2 {
			if n, ok := extract.ParseCount(m[1]); ok {
				return &n
			}
		}
	}
	return nil
}

func readableText(rendered, pageURL string) string {
	node, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return ""
	}
	base, _ := url.Parse(pageURL)
	article, err := readability.FromDocument(node, base)
	if err != nil {
		return ""
	}
	return sharetext.CollapseSpace(article.TextContent)
}
