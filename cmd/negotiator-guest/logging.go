package main

import (
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"
)

// setupLogging installs the process-wide logger: human-readable text on a
// terminal, JSON when stderr goes to a file or the journal.
func setupLogging(section string) {
	level := slog.LevelInfo
	if viper.GetBool(section + ".verbose") {
		level = slog.LevelDebug
	}
	if viper.GetBool(section + ".quiet") {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, opts)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
