// Package logging installs the process-wide slog logger for gpxtriptych.
// Log lines go to stderr so stdout stays free for the track summary.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Setup makes a logger writing to w the default. The level names match the
// log_level config values; an unknown or empty name means info. Format
// "json" suits piping into a collector, anything else prints logfmt text
// for a terminal.
func Setup(w io.Writer, level, format string) {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}
