package logging

import (
	"log"
	"log/slog"
	"os"
)

// Init configures slog on stdout at the given level and points the legacy
// stdlib logger at the same handler output.
func Init(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(h)

	// make legacy stdlib log align to the same stream
	log.SetOutput(os.Stdout)
	return logger
}
