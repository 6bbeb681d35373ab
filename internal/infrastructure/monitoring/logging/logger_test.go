package logging

import "testing"

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewJSONAndConsole(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New(Config{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("New(%s): %v", format, err)
		}
		l.Debug("hello", String("k", "v"), Int("n", 1))
		l.With(String("component", "test")).Info("with fields")
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	l := NewNop()
	l.Debug("x")
	l.Info("x", Err(nil))
	l.Warn("x", Any("v", struct{}{}))
	l.Error("x")
	if err := l.With(Bool("b", true)).Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
