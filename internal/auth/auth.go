// Package auth issues and checks the admin bearer tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Options struct {
	Username string
	Password string
	Secret   string
	Issuer   string
	TTL      time.Duration
}

// Manager holds one fixed admin account and signs HS256 tokens for it.
type Manager struct {
	username []byte
	password []byte
	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if strings.TrimSpace(opts.Issuer) == "" {
		opts.Issuer = "fan-feed"
	}
	if strings.TrimSpace(opts.Username) == "" {
		opts.Username = "admin"
	}
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		// Tokens then stop validating after a restart.
		secret = randomSecret()
		logger.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}
	if opts.Password == "" {
		logger.Warn("ADMIN_PASSWORD not set, admin login disabled")
	}
	return &Manager{
		username: []byte(opts.Username),
		password: []byte(opts.Password),
		secret:   secret,
		issuer:   opts.Issuer,
		ttl:      opts.TTL,
		now:      time.Now,
	}
}

func NewFromConfig(cfg config.Config) *Manager {
	return NewManager(Options{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		TTL:      time.Duration(cfg.TokenTTLHours) * time.Hour,
	})
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("auth: read random secret: %v", err))
	}
	out := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(out, b)
	return out
}

// Login checks the credentials in constant time and issues a token.
func (m *Manager) Login(username, password string) (Token, error) {
	if len(m.password) == 0 {
		return Token{}, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), m.username) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), m.password) == 1
	if !userOK || !passOK {
		return Token{}, ErrInvalidCredentials
	}
	return m.Sign(username)
}

func (m *Manager) Sign(subject string) (Token, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Token: signed, ExpiresAt: exp.UTC()}, nil
}

// Verify accepts an Authorization header value ("Bearer <jwt>") or a bare
// token and returns its claims when the token is a live admin token.
func (m *Manager) Verify(header string) (*Claims, error) {
	raw := strings.TrimSpace(header)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return nil, ErrUnauthorized
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Role != RoleAdmin || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
