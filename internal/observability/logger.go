package observability

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/kukua/saro-sms/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// "json" emits machine-readable lines for the log shipper; "text" uses a
// colored handler for running batches by hand.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
