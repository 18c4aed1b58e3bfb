package api

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/logger"

	"golang.org/x/net/websocket"
)

func TestWebSocketLogsReplaysAndFilters(t *testing.T) {
	config.AppConfig = config.Config{LogLevel: "debug", LogFormat: "json"}
	logger.InitFromConfig()

	srv := NewServer(Options{})
	defer srv.Close()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	logger.Info("ws_marker", "platform", "weibo")
	recent := logger.Recent(logger.Query{Limit: 1})
	if len(recent) != 1 || recent[0].Msg != "ws_marker" {
		t.Fatalf("marker not buffered: %+v", recent)
	}
	since := recent[0].Seq - 1
	logger.Info("ws_other_platform", "platform", "douyin")
	logger.Warn("ws_weibo_warning", "platform", "weibo")

	url := fmt.Sprintf("ws%s/ws/logs?platform=weibo&since=%d", strings.TrimPrefix(ts.URL, "http"), since)
	conn, err := websocket.Dial(url, "", ts.URL)
	if err != nil {
		t.Fatalf("dial logs: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	for _, want := range []string{"ws_marker", "ws_weibo_warning"} {
		var evt logger.Event
		if err := websocket.JSON.Receive(conn, &evt); err != nil {
			t.Fatalf("recv logs: %v", err)
		}
		if evt.Msg != want || evt.Platform != "weibo" {
			t.Fatalf("got %+v, want msg %s", evt, want)
		}
	}
}
