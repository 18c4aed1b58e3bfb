package api

import (
	"net/http"

	"fan-feed-go/internal/logger"

	"golang.org/x/net/websocket"
)

// handleWSLogs streams log events as JSON text frames. With ?since=N the
// buffered events after N are replayed first; level and platform filter both.
func (s *Server) handleWSLogs(w http.ResponseWriter, r *http.Request) {
	q := logQuery(r.URL.Query())
	websocket.Server{
		Handshake: func(cfg *websocket.Config, req *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			sub := logger.Subscribe(q)
			defer sub.Close()

			var last uint64
			if q.Since > 0 {
				for _, e := range logger.Recent(logger.Query{Level: q.Level, Platform: q.Platform, Since: q.Since}) {
					if err := websocket.JSON.Send(conn, e); err != nil {
						return
					}
					last = e.Seq
				}
			}
			for e := range sub.C {
				if e.Seq <= last {
					continue
				}
				if err := websocket.JSON.Send(conn, e); err != nil {
					return
				}
			}
		},
	}.ServeHTTP(w, r)
}
