// Package logging configures the zerolog loggers used across the Session
// Runtime. Process bootstrap and shutdown stay on the stdlib `log`
// package; this package covers the runtime/broadcaster/grader's
// structured, per-event logging.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewRuntimeLogger returns the structured logger used by the Session
// Runtime controller, Grader Oracle, and Broadcaster.
func NewRuntimeLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("component", "runtime").
		Logger()
}
