package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

// bufferLogger builds a Logger over an in-memory JSON handler so tests
// can inspect what gets written.
func bufferLogger(buf *bytes.Buffer) *Logger {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{Logger: slog.New(handler)}
}

func TestNewBuildsConfiguredLogger(t *testing.T) {
	cases := []config.LoggingConfig{
		{Level: "info", Format: "json", Output: "stdout"},
		{Level: "debug", Format: "text", Output: "stderr"},
		{Level: "nonsense", Format: "nonsense", Output: "nonsense"},
	}

	for _, cfg := range cases {
		log := New(cfg, "0.0.1")
		if log == nil || log.Logger == nil {
			t.Fatalf("New(%+v) returned unusable logger", cfg)
		}
	}
}

func TestDefaultUsableBeforeConfig(t *testing.T) {
	log := Default()
	if log == nil || log.Logger == nil {
		t.Fatal("Default() returned unusable logger")
	}
	// Must not panic even with mismatched args. The args are spread from a
	// slice so vet's slog arity check cannot reject this deliberate misuse
	// at compile time; the call slog receives is unchanged.
	mismatched := []any{"key"}
	log.Info("startup", mismatched...)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"trace":   slog.LevelInfo,
	}

	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWithAttachesAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	child := log.With("component", "stream")
	if child == log {
		t.Fatal("With should return a new logger")
	}
	child.Info("subscribed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["component"] != "stream" {
		t.Errorf("component = %v, want stream", entry["component"])
	}

	// The parent must not pick up the child's attributes.
	buf.Reset()
	log.Info("plain")
	entry = map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if _, ok := entry["component"]; ok {
		t.Error("parent logger inherited child attribute")
	}
}

func TestEntriesCarryMessageAndArgs(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	log.Warn("capture retry", "attempt", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["msg"] != "capture retry" {
		t.Errorf("msg = %v, want capture retry", entry["msg"])
	}
	if entry["attempt"] != float64(2) {
		t.Errorf("attempt = %v, want 2", entry["attempt"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}
