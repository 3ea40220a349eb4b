package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWithWriterFiltersByLevel(t *testing.T) {
	prev := Logger
	defer func() {
		Logger = prev
		slog.SetDefault(prev)
	}()

	var buf bytes.Buffer
	InitWithWriter(&buf, "warn")
	buf.Reset()

	Info("hidden", "k", 1)
	Warn("shown", "fighter_id", "king_arthur")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"fighter_id":"king_arthur"`) {
		t.Errorf("expected structured attribute in output: %s", out)
	}
	if !strings.Contains(out, `"service":"fighter-matchup"`) {
		t.Errorf("expected service attribute in output: %s", out)
	}
}
