package main

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a leveled logger. Output must never go to stdout: in
// stdio mode stdout carries JSON-RPC.
func newLogger(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "weatherxm",
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}
