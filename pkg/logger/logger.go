package logger

import (
	"io"
	"log/slog"
	"os"
)

// SetupGlobal installs the default slog logger used across the service.
func SetupGlobal(debug bool, showSource bool, jsonFormat bool) {
	slog.SetDefault(New(os.Stdout, debug, showSource, jsonFormat))
}

func New(w io.Writer, debug bool, showSource bool, jsonFormat bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: showSource,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
