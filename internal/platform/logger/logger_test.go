package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONIncludesAttrsAndRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(&buf, "warn", "json", slog.String("service", "places-api"))
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	log.Info("dropped")
	log.Warn("kept", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["msg"] != "kept" || rec["service"] != "places-api" {
		t.Fatalf("record=%v", rec)
	}
}

func TestNew_RejectsUnknownLevelAndFormat(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, "loud", "json"); err == nil {
		t.Fatalf("expected error for level")
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("expected error for format")
	}
}
