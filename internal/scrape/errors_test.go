package scrape

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-expired.Done()

	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"canceled", context.Canceled, ErrorKindCanceled},
		{"deadline", expired.Err(), ErrorKindTimeout},
		{"wrapped deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), ErrorKindTimeout},
		{"invalid input", NewInvalidInputError("weibo", "", "bad"), ErrorKindInvalidInput},
		{"parse", NewParseError("douyin", "u", errors.New("eof")), ErrorKindParse},
		{"401", NewHTTPStatusError("xhs", "u", 401, ""), ErrorKindForbidden},
		{"429", NewHTTPStatusError("x", "u", 429, "nope"), ErrorKindRateLimited},
		{"500", NewHTTPStatusError("x", "u", 500, ""), ErrorKindHTTP},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrorKindNetwork},
		{"plain", errors.New("something else"), ErrorKindUnknown},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Fatalf("%s: KindOf = %q, want %q", c.name, got, c.want)
		}
	}
	if !IsInvalidInput(fmt.Errorf("wrapped: %w", NewInvalidInputError("", "", "x"))) {
		t.Fatalf("IsInvalidInput should see through wrapping")
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := NewHTTPStatusError("weibo", "https://m.weibo.cn/x", 403, strings.Repeat("a", 600))
	if StatusOf(err) != 403 {
		t.Fatalf("StatusOf = %d", StatusOf(err))
	}
	if StatusOf(errors.New("x")) != 0 {
		t.Fatalf("plain errors carry no status")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "weibo: upstream status 403: ") || !strings.HasSuffix(msg, " (https://m.weibo.cn/x)") {
		t.Fatalf("Error() = %q", msg)
	}
	if strings.Count(msg, "a") > maxBodySnippet+1 {
		t.Fatalf("body snippet not truncated: %d", len(msg))
	}
}

func TestDetectRiskHint(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "<html>请完成安全验证</html>", want: "captcha"},
		{in: "Please solve the CAPTCHA", want: "captcha"},
		{in: "<title>Sina Visitor System</title>", want: "visitor_login"},
		{in: "<p>正常内容</p>", want: ""},
	}
	for _, tc := range cases {
		if got := DetectRiskHint(tc.in); got != tc.want {
			t.Fatalf("DetectRiskHint(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if Sleep(ctx, time.Second) {
		t.Fatalf("Sleep should report cancellation")
	}
	if !Sleep(context.Background(), 0) {
		t.Fatalf("zero sleep should succeed")
	}
}
