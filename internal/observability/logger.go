package observability

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/spot-extract/internal/config"
)

// NewLogger builds the process-wide slog.Logger from config: JSON or text
// handler per LOG_FORMAT, level per LOG_LEVEL. Unknown values fall back to
// info/json rather than failing the run.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
