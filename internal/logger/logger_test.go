package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestCallerAttribution(t *testing.T) {
	Init("debug", "text")
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("attribution check")

	out := buf.String()
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("log line attributed to the wrong frame: %q", out)
	}
	if !strings.Contains(out, "[INFO] attribution check") {
		t.Errorf("message missing from output: %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	Init("warn", "text")
	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("dropped")
	Info("dropped")
	Warn("kept")
	Error("kept too")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("sub-level messages emitted: %q", out)
	}
	if !strings.Contains(out, "[WARN] kept") || !strings.Contains(out, "[ERROR] kept too") {
		t.Errorf("expected messages missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
