// Package sysutil configures process-wide concerns at startup: the global
// zerolog logger, its level, and the context fallback logger.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level. Unknown or empty values mean
// info; "warning" is accepted for warn.
func SetLogLevel(lvl string) {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil || lvl == "" || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// SetupLogger installs the global logger writing to w (stderr when nil),
// as JSON or as a human-readable console when pretty is set. The same
// logger becomes zerolog.DefaultContextLogger, so zerolog.Ctx on a context
// without a request logger still writes somewhere useful.
func SetupLogger(w io.Writer, level string, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	l := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &log.Logger
	return l
}
