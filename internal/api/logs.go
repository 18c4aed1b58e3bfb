package api

import (
	"net/http"
	"net/url"
	"strconv"

	"fan-feed-go/internal/logger"
)

// logQuery reads limit, level, platform and since from the query string.
func logQuery(v url.Values) logger.Query {
	q := logger.Query{
		Limit:    100,
		Level:    v.Get("level"),
		Platform: v.Get("platform"),
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil {
		q.Limit = min(max(n, 1), logger.RingCapacity())
	}
	if n, err := strconv.ParseUint(v.Get("since"), 10, 64); err == nil {
		q.Since = n
	}
	return q
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "logs": logger.Recent(logQuery(r.URL.Query()))})
}
