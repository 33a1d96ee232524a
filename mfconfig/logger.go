package mfconfig

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the structured-logging sink the engine writes diagnostics to:
// trial start/stop, non-converged-flow warnings (spec §7 recovery policy:
// "logged and processing continues"), and consolidate summaries.
//
// The teacher repository (lvlath) has no logging idiom of its own — it is
// zero-dependency end to end — so this interface and its zerolog-backed
// implementation are grounded on smilemakc-mbflow, which threads a
// zerolog.Logger through its engine and worker constructors the same way.
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
}

// zlogger adapts a zerolog.Logger to the Logger interface.
type zlogger struct {
	l zerolog.Logger
}

func (z zlogger) Debug() *zerolog.Event { return z.l.Debug() }
func (z zlogger) Info() *zerolog.Event  { return z.l.Info() }
func (z zlogger) Warn() *zerolog.Event  { return z.l.Warn() }
func (z zlogger) Error() *zerolog.Event { return z.l.Error() }

// NewTextLogger returns a human-readable console logger writing to w, for
// CLI-adjacent use (the CLI itself is an external collaborator per spec §1).
func NewTextLogger(w io.Writer) Logger {
	return zlogger{l: zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()}
}

// NewJSONLogger returns a structured JSON logger writing to w.
func NewJSONLogger(w io.Writer) Logger {
	return zlogger{l: zerolog.New(w).With().Timestamp().Logger()}
}

// discardLogger drops every event; it is the zero-cost default so
// constructing a Config never requires wiring a sink.
type discardLogger struct{}

func (discardLogger) Debug() *zerolog.Event { return disabledEvent() }
func (discardLogger) Info() *zerolog.Event  { return disabledEvent() }
func (discardLogger) Warn() *zerolog.Event  { return disabledEvent() }
func (discardLogger) Error() *zerolog.Event { return disabledEvent() }

// discardZerolog is a package-level var (not a temporary) so its
// pointer-receiver Debug/Info/Warn/Error methods are callable.
var discardZerolog = zerolog.New(io.Discard).With().Logger()

func disabledEvent() *zerolog.Event {
	return discardZerolog.Debug()
}

// DiscardLogger is the default Logger: every event is a no-op.
var DiscardLogger Logger = discardLogger{}
