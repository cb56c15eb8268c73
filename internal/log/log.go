// Package log provides structured logging for liftviz.
// It wraps slog with a process-wide logger configured once at startup.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
	once   sync.Once
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the global logger with the specified level.
// Only the first call has an effect.
func Init(level string) {
	once.Do(func() {
		setLogger(newLogger(os.Stdout, ParseLevel(level)))
	})
}

// SetOutput replaces the global logger, writing to w at the given level.
// Tests use it to capture output.
func SetOutput(w io.Writer, level string) {
	once.Do(func() {})
	setLogger(newLogger(w, ParseLevel(level)))
}

func newLogger(w io.Writer, lvl slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lvl}

	// JSON in production, text in development
	if os.Getenv("GO_ENV") == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func setLogger(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// L returns the global logger instance.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init("info")
		mu.RLock()
		l = logger
		mu.RUnlock()
	}
	return l
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
