package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	// Logger is the global slog logger instance. It falls back to slog's
	// default handler until Init runs, so packages can log from tests.
	Logger = slog.Default()
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Init installs the JSON logger on stdout at the level named by LOG_LEVEL
func Init() {
	InitWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// InitWithWriter installs the JSON logger on w at the given level
func InitWithWriter(w io.Writer, level string) {
	if level == "" {
		level = "info"
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	Logger = slog.New(handler).With("service", "fighter-matchup")
	slog.SetDefault(Logger)

	Logger.Info("Logger initialized", "level", level)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
