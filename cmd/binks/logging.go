package main

import (
	"log/slog"
	"os"

	"github.com/binkshq/binks/pkg/logger"
)

// initLogger maps the repeatable -v flag to a log level per §6: 0=warn,
// 1=info, 2=debug, 3=trace. slog has no trace level below debug, so
// verbose=3 also maps to debug (documented in DESIGN.md).
func initLogger(verbose int) {
	level := slog.LevelWarn
	switch {
	case verbose >= 2:
		level = slog.LevelDebug
	case verbose == 1:
		level = slog.LevelInfo
	}
	logger.Init(level, os.Stderr, "simple")
}
