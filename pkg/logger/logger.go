// Package logger defines the logging abstraction used across tether.
//
// The supervisor and the bundled providers log through the Logger interface,
// so the application can plug in whatever logging backend it already uses.
// A log/slog-backed implementation lives in this package, and a
// zerolog-backed one in the zerologger subpackage.
package logger

import (
	"log/slog"
)

// Logger is the minimal leveled logging interface tether components write to.
//
// Arguments after the message are alternating key/value pairs,
// following the log/slog convention.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// SlogHandler adapts a log/slog handler to the Logger interface.
type SlogHandler struct {
	logger *slog.Logger
}

// New returns a Logger backed by the given slog handler.
func New(h slog.Handler) *SlogHandler {
	logger := slog.New(h)
	return &SlogHandler{logger: logger}
}

func (handler *SlogHandler) Error(msg string, args ...any) {
	handler.logger.Error(msg, args...)
}

func (handler *SlogHandler) Warn(msg string, args ...any) {
	handler.logger.Warn(msg, args...)
}

func (handler *SlogHandler) Info(msg string, args ...any) {
	handler.logger.Info(msg, args...)
}

func (handler *SlogHandler) Debug(msg string, args ...any) {
	handler.logger.Debug(msg, args...)
}
