package scrape

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind is the short label fetch failures carry into logs, attempt
// records and metrics.
type ErrorKind string

const (
	ErrorKindUnknown      ErrorKind = "unknown"
	ErrorKindRiskHint     ErrorKind = "risk_hint"
	ErrorKindHTTP         ErrorKind = "http"
	ErrorKindForbidden    ErrorKind = "forbidden"
	ErrorKindRateLimited  ErrorKind = "rate_limited"
	ErrorKindInvalidInput ErrorKind = "invalid_input"
	ErrorKindParse        ErrorKind = "parse"
	ErrorKindEmpty        ErrorKind = "empty"
	ErrorKindCanceled     ErrorKind = "canceled"
	ErrorKindTimeout      ErrorKind = "timeout"
	ErrorKindNetwork      ErrorKind = "network"
)

const maxBodySnippet = 512

// Error is a classified upstream failure. Status is set only for non-2xx
// responses.
type Error struct {
	Kind     ErrorKind
	Platform string
	URL      string
	Status   int
	Msg      string
	Err      error
}

func (e Error) Error() string {
	var b strings.Builder
	if e.Platform != "" {
		b.WriteString(e.Platform)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(string(e.Kind))
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " (%s)", e.URL)
	}
	return b.String()
}

func (e Error) Unwrap() error { return e.Err }

// KindOf classifies any error. Unclassified network failures report
// ErrorKindNetwork so the cascade can tell a dead host from a bad page.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se Error
	if errors.As(err, &se) && se.Kind != "" {
		return se.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorKindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindNetwork
	}
	return ErrorKindUnknown
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se Error
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrorKindInvalidInput
}

func NewInvalidInputError(platform, url, msg string) error {
	return Error{Kind: ErrorKindInvalidInput, Platform: platform, URL: url, Msg: msg}
}

func NewParseError(platform, url string, err error) error {
	return Error{Kind: ErrorKindParse, Platform: platform, URL: url, Msg: "unparseable response", Err: err}
}

func NewEmptyError(platform, url, msg string) error {
	return Error{Kind: ErrorKindEmpty, Platform: platform, URL: url, Msg: msg}
}

func NewRiskHintError(platform, url, hint string) error {
	return Error{Kind: ErrorKindRiskHint, Platform: platform, URL: url, Msg: "risk page: " + hint}
}

// NewHTTPStatusError keeps the head of the body so a log line shows what the
// upstream answered with.
func NewHTTPStatusError(platform, url string, status int, body string) error {
	msg := fmt.Sprintf("upstream status %d", status)
	if snippet := strings.TrimSpace(body); snippet != "" {
		if len(snippet) > maxBodySnippet {
			snippet = snippet[:maxBodySnippet]
		}
		msg += ": " + snippet
	}
	return Error{Kind: kindForStatus(status), Platform: platform, URL: url, Status: status, Msg: msg}
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case 401, 403:
		return ErrorKindForbidden
	case 429:
		return ErrorKindRateLimited
	default:
		return ErrorKindHTTP
	}
}
