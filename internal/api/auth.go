package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fan-feed-go/internal/auth"
	"fan-feed-go/internal/logger"
)

type ctxKey int

const claimsKey ctxKey = iota

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "auth is not configured")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	tok, err := s.auth.Login(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		logger.Warn("admin login failed", "username", req.Username, "remote", clientIP(r))
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	logger.Info("admin login", "username", req.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     tok.Token,
		"expiresAt": tok.ExpiresAt,
	})
}

// requireAdmin rejects requests without a valid admin bearer token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, err := s.auth.Verify(r.Header.Get("Authorization"))
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthorized) {
				logger.Warn("token verification failed", "err", err)
			}
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func adminSubject(r *http.Request) string {
	if c, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return c.Subject
	}
	return ""
}
