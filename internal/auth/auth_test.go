package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager(Options{Username: "admin", Password: "s3cret", Secret: "test-secret"})
}

func TestLoginAndVerify(t *testing.T) {
	m := newTestManager()
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	tok, err := m.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !tok.ExpiresAt.Equal(fixed.Add(24 * time.Hour)) {
		t.Fatalf("ExpiresAt=%v", tok.ExpiresAt)
	}

	claims, err := m.Verify("Bearer " + tok.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != RoleAdmin || claims.Issuer != "fan-feed" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := m.Verify(tok.Token); err != nil {
		t.Fatalf("bare token should verify: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := newTestManager()
	for _, c := range [][2]string{{"admin", "nope"}, {"root", "s3cret"}, {"", ""}} {
		if _, err := m.Login(c[0], c[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q,%q): expected ErrInvalidCredentials, got %v", c[0], c[1], err)
		}
	}

	disabled := NewManager(Options{Secret: "x"})
	if _, err := disabled.Login("admin", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login without configured password must fail, got %v", err)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	m := newTestManager()
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	tok, err := m.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	m.now = func() time.Time { return issued.Add(25 * time.Hour) }
	if _, err := m.Verify("Bearer " + tok.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token: expected ErrUnauthorized, got %v", err)
	}

	other := NewManager(Options{Username: "admin", Password: "s3cret", Secret: "other-secret"})
	fresh, _ := other.Login("admin", "s3cret")
	if _, err := newTestManager().Verify("Bearer " + fresh.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign signature: expected ErrUnauthorized, got %v", err)
	}

	for _, h := range []string{"", "Bearer ", "Basic abc", "Bearer not.a.jwt"} {
		if _, err := m.Verify(h); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Verify(%q): expected ErrUnauthorized, got %v", h, err)
		}
	}
}
