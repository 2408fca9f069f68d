package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "test")

	l.Info("frame processed", "openness", 42, "stationary", true)

	out := buf.String()
	for _, want := range []string{"[test]", "[INFO]", "frame processed", "openness=42", "stationary=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLogger_OddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "test")

	l.Warn("dangling", "key")

	if !strings.Contains(buf.String(), "key=?") {
		t.Errorf("expected dangling key marker, got %q", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	defer SetLevel(LevelInfo)

	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "test")

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}

	SetLevel(LevelDebug)
	l.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug should be written at debug level, got %q", buf.String())
	}

	buf.Reset()
	SetLevel(LevelError)
	l.Warn("hidden")
	if buf.Len() != 0 {
		t.Errorf("warn should be filtered at error level, got %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "handarm").With("publish")

	l.Error("send failed")

	if !strings.Contains(buf.String(), "[handarm/publish]") {
		t.Errorf("expected child prefix, got %q", buf.String())
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Info("no panic")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
