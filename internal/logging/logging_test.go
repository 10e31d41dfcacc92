package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogGatesByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)

	l.Debugf("hidden %d", 1)
	l.Infof("also hidden")
	l.Warnf("shown %s", "warn")
	l.Errorf("shown %s", "error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info suppressed, got %q", out)
	}
	if !strings.Contains(out, "shown warn") || !strings.Contains(out, "shown error") {
		t.Fatalf("expected warn/error lines, got %q", out)
	}
}

func TestLevelFromCount(t *testing.T) {
	cases := map[int]Level{0: Warn, 1: Info, 2: Debug, 5: Debug}
	for n, want := range cases {
		if got := LevelFromCount(n); got != want {
			t.Fatalf("LevelFromCount(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Infof("noop")
}
