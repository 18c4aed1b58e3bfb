package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/store"
)

// withDisplayURLs routes hotlink-protected media through the proxy.
func withDisplayURLs(p model.Post) model.Post {
	p.Media = model.WithProxiedDisplay(p.Media)
	return p
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, store.ErrInvalidDraft):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("post store failure", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to access posts")
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[i] = withDisplayURLs(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "posts": out, "count": len(out)})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": withDisplayURLs(p)})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var d model.PostDraft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.Create(r.Context(), d)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	logger.Info("post created", "id", p.ID, "platform", string(p.Platform), "seq", p.Seq, "by", adminSubject(r))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "post": withDisplayURLs(p)})
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var d model.PostDraft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.Update(r.Context(), r.PathValue("id"), d)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	logger.Info("post updated", "id", p.ID, "by", adminSubject(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": withDisplayURLs(p)})
}

func (s *Server) handleUpdateEngagement(w http.ResponseWriter, r *http.Request) {
	var e model.PartialEngagement
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.UpdateEngagement(r.Context(), r.PathValue("id"), e)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": withDisplayURLs(p)})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	logger.Info("post deleted", "id", p.ID, "by", adminSubject(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": withDisplayURLs(p)})
}

func (s *Server) handleExportPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := store.ExportXLSX(posts, &buf); err != nil {
		logger.Error("xlsx export failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	name := "posts-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
