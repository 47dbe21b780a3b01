// Package logging wraps zerolog the way cuemby-warren/pkg/log does —
// a package-level configured root logger, a Config struct naming the
// level/format/output knobs, and per-component child loggers — adapted
// from a global-singleton shape to a passed-in Logger value so every
// package that logs (fsm, replica, server, client) takes one as a
// constructor argument instead of reaching for a package global.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level names the handful of severities callers configure by name.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds the ambient logging knobs read from the node's
// configuration file.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Logger is a thin, component-tagged wrapper over zerolog.Logger that
// exposes printf-style convenience methods, so call sites read like
// the teacher's log.Errorf without needing a pre-built zerolog.Event.
type Logger struct {
	z zerolog.Logger
}

// New builds the root Logger for a process from cfg.
func New(cfg Config) Logger {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var z zerolog.Logger
	if cfg.JSONOutput {
		z = zerolog.New(output).With().Timestamp().Logger()
	} else {
		z = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	return Logger{z: z}
}

// WithComponent returns a child logger tagging every line with
// component, mirroring the teacher's WithComponent.
func (l Logger) WithComponent(component string) Logger {
	return Logger{z: l.z.With().Str("component", component).Logger()}
}

// WithServerID tags every line with the owning peer's server id.
func (l Logger) WithServerID(serverID string) Logger {
	return Logger{z: l.z.With().Str("server_id", serverID).Logger()}
}

func (l Logger) Debug(format string, args ...interface{}) { l.z.Debug().Msgf(format, args...) }
func (l Logger) Info(format string, args ...interface{})  { l.z.Info().Msgf(format, args...) }
func (l Logger) Warn(format string, args ...interface{})  { l.z.Warn().Msgf(format, args...) }
func (l Logger) Error(format string, args ...interface{}) { l.z.Error().Msgf(format, args...) }

// Fatal logs at fatal level and terminates the process, matching
// zerolog's own Fatal semantics (os.Exit(1) after the event is
// written).
func (l Logger) Fatal(format string, args ...interface{}) { l.z.Fatal().Msgf(format, args...) }

// Nop returns a Logger that discards everything, for tests that need
// a logging.Logger value but don't care about its output.
func Nop() Logger {
	return Logger{z: zerolog.Nop()}
}
