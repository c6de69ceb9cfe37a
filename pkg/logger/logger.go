// Package logger provides component-tagged structured logging for the app.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
)

// SetLevel sets the global log level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log = log.Level(lvl)
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).With().Timestamp().Logger()
}

func emit(ev *zerolog.Event, component, msg string, fields map[string]any) {
	ev = ev.Str("component", component)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// DebugC logs a debug message for a component.
func DebugC(component, msg string) { DebugCF(component, msg, nil) }

// DebugCF logs a debug message with fields.
func DebugCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Debug(), component, msg, fields)
}

// InfoC logs an info message for a component.
func InfoC(component, msg string) { InfoCF(component, msg, nil) }

// InfoCF logs an info message with fields.
func InfoCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Info(), component, msg, fields)
}

// WarnC logs a warning for a component.
func WarnC(component, msg string) { WarnCF(component, msg, nil) }

// WarnCF logs a warning with fields.
func WarnCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Warn(), component, msg, fields)
}

// ErrorC logs an error for a component.
func ErrorC(component, msg string) { ErrorCF(component, msg, nil) }

// ErrorCF logs an error with fields.
func ErrorCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Error(), component, msg, fields)
}
