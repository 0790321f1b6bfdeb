package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestNewWithWriterJSON verifies that non-development loggers emit JSON with the level applied.
func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "warn")

	log.Info().Msg("dropped")
	log.Warn().Str("component", "hub").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Log line is not JSON: %v", err)
	}
	if entry["message"] != "kept" || entry["component"] != "hub" {
		t.Errorf("Unexpected log entry: %v", entry)
	}
}

// TestNewWithWriterDefaultsToInfo verifies that an unknown level falls back to info.
func TestNewWithWriterDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "nonsense")

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("Debug entry should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Info entry should be written")
	}
}
