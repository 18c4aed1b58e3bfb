package api

import (
	"net/http"
	"sort"
	"strings"

	"fan-feed-go/internal/platform"
	"fan-feed-go/internal/platform/weibo"
	"fan-feed-go/internal/scrape"
)

func (s *Server) platformNames() []string {
	out := make([]string, 0, len(s.services))
	for name := range s.services {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// service resolves the {platform} path value, accepting aliases.
func (s *Server) service(w http.ResponseWriter, r *http.Request) (*platform.Service, bool) {
	name := strings.TrimSpace(r.PathValue("platform"))
	if c, ok := platform.Canonical(name); ok {
		name = c
	}
	svc, ok := s.services[strings.ToLower(name)]
	if !ok {
		writeError(w, http.StatusNotFound, "Unsupported platform: "+r.PathValue("platform"))
		return nil, false
	}
	return svc, true
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	type item struct {
		Name       string   `json:"name"`
		Strategies []string `json:"strategies"`
	}
	out := make([]item, 0, len(s.services))
	for _, name := range s.platformNames() {
		states := s.services[name].Platform.Pipeline().States()
		names := make([]string, len(states))
		for i, st := range states {
			names[i] = string(st)
		}
		out = append(out, item{Name: name, Strategies: names})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "platforms": out})
}

func (s *Server) decodeFetchRequest(w http.ResponseWriter, r *http.Request) (platform.FetchRequest, bool) {
	var req platform.FetchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	req.URL = strings.TrimSpace(req.URL)
	req.ShareText = strings.TrimSpace(req.ShareText)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return req, false
	}
	return req, true
}

// handleFetch runs the cascade. Upstream failures still answer 200 with the
// manual assistant; only unusable input is a client error.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeFetchRequest(w, r)
	if !ok {
		return
	}
	res, err := svc.Fetch(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeFetchRequest(w, r)
	if !ok {
		return
	}
	in, err := svc.Platform.Prepare(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	md := svc.Platform.Resolve(r.Context(), in.URL)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": md})
}

type parseRequest struct {
	ShareText string `json:"shareText" validate:"required"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	hint := svc.Platform.ParseShareText(req.ShareText)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": hint})
}

func (s *Server) handleWeiboClientHelper(w http.ResponseWriter, r *http.Request) {
	var req weibo.HelperRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	resp, err := weibo.ClientHelper(req)
	if err != nil {
		status := http.StatusInternalServerError
		if scrape.IsInvalidInput(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
