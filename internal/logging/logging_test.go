package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseLevel(tc.in); got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelWarn)
	log.SetOutput(&buf)

	log.Debug("hidden %d", 1)
	log.Info("hidden %d", 2)
	log.Warn("shown %d", 3)
	log.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("output missing messages: %q", out)
	}
}

func TestNamedSharesSink(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelError)
	root.SetOutput(&buf)

	child := root.Named("ephem").Named("horizons")
	child.Info("before")
	root.SetLevel(LevelDebug)
	child.Info("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("child ignored parent level: %q", out)
	}
	if !strings.Contains(out, "[INFO] ephem.horizons: after") {
		t.Errorf("child line missing prefix: %q", out)
	}
	if !child.Enabled(LevelDebug) {
		t.Error("child.Enabled(LevelDebug) = false after parent SetLevel")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	if log.Enabled(LevelError) {
		t.Error("Discard logger reports Error enabled")
	}
	log.Error("nothing %s", "here")
}
