package runtime

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/belvedhair/booking/libs/config"
)

// NewLogger writes JSON to stdout at LOG_LEVEL, tagging every entry with service.
func NewLogger(service string) *slog.Logger {
	return NewLoggerTo(os.Stdout, service, config.String("LOG_LEVEL", "info"))
}

func NewLoggerTo(w io.Writer, service, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(h).With("service", service)
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
