// Package logging configures structured logging: colored output with tint
// for development, JSON for log collectors.
//
// Usage:
//
//	logging.Setup()                                // from LOG_LEVEL / LOG_FORMAT env
//	logging.SetupWithLevel(slog.LevelDebug)        // explicit level, tint output
//	logger := logging.New(os.Stdout, level, "json")
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
//	LOG_FORMAT: text, json (default: text)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures the default logger from LOG_LEVEL and LOG_FORMAT.
func Setup() *slog.Logger {
	return install(New(os.Stderr, levelFromEnv(), os.Getenv("LOG_FORMAT")))
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) *slog.Logger {
	return install(New(os.Stderr, level, "text"))
}

// SetupWith configures the default logger with an explicit level and format.
func SetupWith(level slog.Level, format string) *slog.Logger {
	return install(New(os.Stderr, level, format))
}

// New builds a logger writing to w. format "json" selects slog's JSON
// handler; anything else selects tint.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}

func install(logger *slog.Logger) *slog.Logger {
	slog.SetDefault(logger)
	return logger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
