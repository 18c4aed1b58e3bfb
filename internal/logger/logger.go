package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"fan-feed-go/internal/config"
)

// InitFromConfig installs the process-wide slog handler. Every record is also
// kept in the recent-events ring and streamed to websocket subscribers.
func InitFromConfig() {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, config.AppConfig.LogLevel, config.AppConfig.LogFormat)))
}

func NewHandler(w io.Writer, level, format string) slog.Handler {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return NewBroadcastHandler(handler)
}

func Info(msg string, args ...any) {
	slog.Default().Info(msg, args...)
}

func Error(msg string, args ...any) {
	slog.Default().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	slog.Default().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	slog.Default().Debug(msg, args...)
}
