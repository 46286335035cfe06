package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is the configured log verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts a level name to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the global slog logger at the given level.
func Setup(level Level) *slog.Logger {
	return SetupWithWriter(level, os.Stderr)
}

// SetupWithWriter installs slog with a custom writer (useful for testing).
func SetupWithWriter(level Level, w io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
