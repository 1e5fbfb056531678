package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDebugLogger_EmptyPath(t *testing.T) {
	l, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("NewDebugLogger(\"\") error: %v", err)
	}
	// No-op logger must not panic.
	l.Log("hello %s", "world")
	if err := l.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNewDebugLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")

	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger error: %v", err)
	}
	l.Log("routed to %s", "rex")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "routed to rex") {
		t.Errorf("log file missing message, got:\n%s", data)
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.Log("queue length %d", 3)

	if !strings.Contains(buf.String(), "queue length 3") {
		t.Errorf("buffer = %q, want message", buf.String())
	}
}

func TestNilLogger(t *testing.T) {
	var l *DebugLogger
	l.Log("ignored")
	if err := l.Close(); err != nil {
		t.Errorf("nil Close() error: %v", err)
	}
}
