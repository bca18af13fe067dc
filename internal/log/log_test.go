package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriterTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.Info("proposal created", "proposal_id", "p-123")

	out := buf.String()
	if !strings.Contains(out, "proposal created") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "proposal_id=p-123") {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestNewWithWriterJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("validation sent")

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"msg":"validation sent"`) {
		t.Errorf("expected msg field in JSON output, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Debug("below threshold")
	logger.Info("also below")
	logger.Warn("at threshold")

	out := buf.String()
	if strings.Contains(out, "below threshold") || strings.Contains(out, "also below") {
		t.Errorf("debug/info should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "at threshold") {
		t.Errorf("warn message missing, got %q", out)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic; output goes nowhere.
	logger.Error("discarded", "key", "value")
}
