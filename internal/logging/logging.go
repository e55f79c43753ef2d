// Package logging builds the daemon's structured logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"

	"github.com/jamesprial/oled-status/internal/config"
)

// New returns a logger writing to stderr at the configured level. Console
// output is human readable; otherwise each event is one JSON line.
func New(cfg config.LoggingConfig) *log.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *log.Logger {
	logger := &log.Logger{
		Level:      ParseLevel(cfg.Level),
		TimeFormat: "15:04:05.000",
	}
	if cfg.Console {
		logger.Writer = &log.ConsoleWriter{
			Writer:         w,
			EndWithMessage: true,
		}
	} else {
		logger.TimeFormat = ""
		logger.Writer = &log.IOWriter{Writer: w}
	}
	return logger
}

// ParseLevel maps a config level name to a log.Level. Unknown names fall back
// to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Discard returns a logger that drops every event. Tests use it.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
