package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(slog.LevelWarn, "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "space_id", "A-01")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "shown" || entry["space_id"] != "A-01" {
		t.Fatalf("unexpected entry %#v", entry)
	}
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(slog.LevelDebug, "text", &buf).Debug("booted", "port", 8080)

	if got := buf.String(); !strings.Contains(got, "msg=booted") || !strings.Contains(got, "port=8080") {
		t.Fatalf("unexpected text output %q", got)
	}
}

func TestContextWithLogger(t *testing.T) {
	t.Parallel()

	logger := New(slog.LevelInfo, "json", &bytes.Buffer{})
	ctx := ContextWithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger from context")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil logger for bare context")
	}
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatalf("expected nil logger to leave context unchanged")
	}
}
