// Package api exposes the post feed, the admin editing routes, the per
// platform fetch pipeline and the media proxy over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fan-feed-go/internal/auth"
	"fan-feed-go/internal/config"
	"fan-feed-go/internal/platform"
	"fan-feed-go/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Config   config.Config
	Store    *store.Store
	Auth     *auth.Manager
	Services map[string]*platform.Service
	Media    http.Handler
	Metrics  http.Handler
}

type Server struct {
	cfg      config.Config
	mux      *http.ServeMux
	store    *store.Store
	auth     *auth.Manager
	services map[string]*platform.Service
	media    http.Handler
	metrics  http.Handler
	validate *validator.Validate

	loginLimiter *RateLimiter
	fetchLimiter *RateLimiter
	started      time.Time
}

func NewServer(opts Options) *Server {
	s := &Server{
		cfg:          opts.Config,
		mux:          http.NewServeMux(),
		store:        opts.Store,
		auth:         opts.Auth,
		services:     opts.Services,
		media:        opts.Media,
		metrics:      opts.Metrics,
		validate:     validator.New(),
		loginLimiter: NewRateLimiter(opts.Config.RateLimitLoginPerMin),
		fetchLimiter: NewRateLimiter(opts.Config.RateLimitFetchPerMin),
		started:      time.Now(),
	}
	if s.services == nil {
		s.services = map[string]*platform.Service{}
	}
	s.routes()
	return s
}

// Handler wraps the routes with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})
	return c.Handler(s.mux)
}

// Close stops the rate limiter janitors.
func (s *Server) Close() {
	s.loginLimiter.Stop()
	s.fetchLimiter.Stop()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /api/health", s.handleHealthz)

	s.mux.Handle("POST /api/admin/login", s.loginLimiter.Middleware(http.HandlerFunc(s.handleLogin)))

	s.mux.HandleFunc("GET /api/posts", s.handleListPosts)
	s.mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	s.mux.Handle("GET /api/posts/export.xlsx", s.requireAdmin(http.HandlerFunc(s.handleExportPosts)))
	s.mux.Handle("POST /api/posts", s.requireAdmin(http.HandlerFunc(s.handleCreatePost)))
	s.mux.Handle("PUT /api/posts/{id}", s.requireAdmin(http.HandlerFunc(s.handleUpdatePost)))
	s.mux.Handle("PATCH /api/posts/{id}/engagement", s.requireAdmin(http.HandlerFunc(s.handleUpdateEngagement)))
	s.mux.Handle("DELETE /api/posts/{id}", s.requireAdmin(http.HandlerFunc(s.handleDeletePost)))

	s.mux.HandleFunc("GET /api/platforms", s.handlePlatforms)
	s.mux.Handle("POST /api/{platform}/fetch", s.fetchLimiter.Middleware(http.HandlerFunc(s.handleFetch)))
	s.mux.Handle("POST /api/{platform}/resolve", s.fetchLimiter.Middleware(http.HandlerFunc(s.handleResolve)))
	s.mux.HandleFunc("POST /api/{platform}/parse", s.handleParse)
	s.mux.Handle("GET /api/feed/{platform}", s.fetchLimiter.Middleware(http.HandlerFunc(s.handleFeed)))
	s.mux.HandleFunc("POST /api/weibo/client-helper", s.handleWeiboClientHelper)

	if s.media != nil {
		for _, p := range []string{"/proxy", "/api/media-proxy"} {
			s.mux.Handle("GET "+p, s.media)
			s.mux.Handle("OPTIONS "+p, s.media)
		}
	}

	s.mux.Handle("GET /api/logs", s.requireAdmin(http.HandlerFunc(s.handleLogs)))
	s.mux.HandleFunc("GET /ws/logs", s.handleWSLogs)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"platforms": s.platformNames(),
		"uptimeSec": int64(time.Since(s.started).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// decodeJSON reads a bounded body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// validationMessage flattens validator errors into "Field (tag)" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}
