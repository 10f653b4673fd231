// Package logger provides leveled logging for mailrag.
// Debug and info messages are only emitted in verbose mode (--verbose);
// warnings and errors are always written so degraded pipeline paths stay visible.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = build(os.Stderr, false)
)

func build(w io.Writer, v bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if v {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build(output, verbose)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build(output, verbose)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug logs a message at debug level.
func Debug(format string, args ...any) {
	l := current()
	l.Debug().Msgf(format, args...)
}

// Info logs a message at info level.
func Info(format string, args ...any) {
	l := current()
	l.Info().Msgf(format, args...)
}

// Warn logs a warning. Always emitted.
func Warn(format string, args ...any) {
	l := current()
	l.Warn().Msgf(format, args...)
}

// Error logs an error with its cause. Always emitted.
func Error(err error, format string, args ...any) {
	l := current()
	l.Error().Err(err).Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Entry is a logger carrying fixed fields, such as a request id.
type Entry struct {
	l zerolog.Logger
}

// With returns an Entry that attaches the given fields to every message.
func With(fields map[string]any) Entry {
	l := current()
	return Entry{l: l.With().Fields(fields).Logger()}
}

// Debug logs at debug level.
func (e Entry) Debug(format string, args ...any) { e.l.Debug().Msgf(format, args...) }

// Info logs at info level.
func (e Entry) Info(format string, args ...any) { e.l.Info().Msgf(format, args...) }

// Warn logs a warning.
func (e Entry) Warn(format string, args ...any) { e.l.Warn().Msgf(format, args...) }

// Error logs an error with its cause.
func (e Entry) Error(err error, format string, args ...any) {
	e.l.Error().Err(err).Msgf(format, args...)
}
