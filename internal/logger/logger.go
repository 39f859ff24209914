// SPDX-License-Identifier: EPL-2.0

// Package logger configures zerolog for the command line tools.
package logger

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps debug, info, warn and error to zerolog levels.
// Anything else is info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init sets the global level and returns a logger writing to w, as JSON
// lines or through the console writer.
func Init(w io.Writer, level string, json bool) zerolog.Logger {
	lvl := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)

	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
