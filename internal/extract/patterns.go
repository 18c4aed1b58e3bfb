package extract

import "regexp"

var (
	renderDataRe = regexp.MustCompile(`(?s)<script[^>]+id="RENDER_DATA"[^>]*>(.*?)</script>`)
	nextDataRe   = regexp.MustCompile(`(?s)<script[^>]+id="__NEXT_DATA__"[^>]*>(.*?)</script>`)
)

// Embedded-state blobs seen across the supported sites. Platforms compose
// these into their own Strategy lists.
var (
	RenderData   = Pattern{Name: "render_data", Regexp: renderDataRe}
	NextData     = Pattern{Name: "next_data", Regexp: nextDataRe}
	RouterData   = Pattern{Name: "router_data", Marker: "window._ROUTER_DATA"}
	InitialState = Pattern{Name: "initial_state", Marker: "window.__INITIAL_STATE__"}
	SSRState     = Pattern{Name: "ssr_state", Marker: "window.__INITIAL_SSR_STATE__"}
	PlainState   = Pattern{Name: "plain_initial_state", Marker: "window.INITIAL_STATE"}
	NuxtState    = Pattern{Name: "nuxt", Marker: "window.__NUXT__"}
	WeiboRender  = Pattern{Name: "weibo_render_data", Marker: "var $render_data"}
)
