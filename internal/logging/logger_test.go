package logging

import "testing"

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("not-a-level"); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestNewBuildsLoggerAtValidLevel(t *testing.T) {
	l, err := New("debug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Info("hello", "key", "value")
	if err := l.Sync(); err != nil {
		t.Logf("sync returned %v (harmless on some platforms)", err)
	}
}
