package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

// Logger is the application logger. It embeds slog.Logger, so call
// sites use the standard structured methods directly:
//
//	log.Info("stream started", "fps", 10)
//
// Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of the configuration.
// Every entry carries service and version fields so aggregated logs can
// tell instances apart.
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := newHandler(cfg).WithAttrs([]slog.Attr{
		slog.String("service", "vigil"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a JSON logger at info level on stdout, for use during
// startup before the configuration is loaded. Everything after config
// load should use New.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// With returns a logger that attaches the given attributes to every
// entry it produces.
//
//	streamLog := log.With("component", "stream")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// newHandler maps the configured format, level and output onto a slog
// handler. Unrecognised values fall back to JSON on stdout at info
// level; logging has to come up even when its own config is wrong.
func newHandler(cfg config.LoggingConfig) slog.Handler {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// parseLevel maps a config level string onto a slog level. Unknown
// strings mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
