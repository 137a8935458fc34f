package internal

import (
	"log/slog"
	"os"
	"strings"
)

// LoggerFromString builds a text slog logger from a level name.
// Unknown names fall back to info rather than failing startup.
func LoggerFromString(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
