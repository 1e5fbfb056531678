// Package logging provides the debug logger shared by the routing and
// execution packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger provides timestamped debug logging.
// A nil logger, or one without a writer, discards everything.
type DebugLogger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewDebugLogger creates a logger appending to the file at logPath.
// If the path is empty, returns a no-op logger.
// Creates parent directories if they don't exist.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{w: f, closer: f}
	logger.Log("=== fixit debug log started at %s ===", time.Now().Format(time.RFC3339))

	return logger, nil
}

// NewWriterLogger creates a logger writing to w. Used by the CLI's --verbose flag and tests.
func NewWriterLogger(w io.Writer) *DebugLogger {
	return &DebugLogger{w: w}
}

// NewDebugLoggerForProject creates a debug logger in the project's .fixit/logs directory.
// Returns a no-op logger if the directory cannot be created.
func NewDebugLoggerForProject(projectRoot string) *DebugLogger {
	logPath := filepath.Join(projectRoot, ".fixit", "logs", "debug.log")
	logger, err := NewDebugLogger(logPath)
	if err != nil {
		return &DebugLogger{}
	}
	return logger
}

// NopLogger returns a no-op logger for testing or when logging is disabled.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a timestamped message to the debug log.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.w == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.w, "[%s] %s\n", timestamp, msg)
	if f, ok := l.w.(*os.File); ok {
		f.Sync()
	}
}

// Close closes the underlying file, if any.
// Safe to call on nil logger or logger without file.
func (l *DebugLogger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closer.Close()
}
