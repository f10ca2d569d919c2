// Package zerologger provides a zerolog-backed implementation of the
// logger.Logger interface.
package zerologger

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Handler writes tether log output through a zerolog.Logger.
type Handler struct {
	logger zerolog.Logger
}

// New returns a Handler writing JSON log lines to w with timestamps.
func New(w io.Writer) *Handler {
	return &Handler{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// FromLogger wraps an existing zerolog.Logger, so the application can share
// one configured logger between tether and the rest of its code.
func FromLogger(l zerolog.Logger) *Handler {
	return &Handler{logger: l}
}

func (h *Handler) Error(msg string, args ...any) {
	h.emit(h.logger.Error(), msg, args)
}

func (h *Handler) Warn(msg string, args ...any) {
	h.emit(h.logger.Warn(), msg, args)
}

func (h *Handler) Info(msg string, args ...any) {
	h.emit(h.logger.Info(), msg, args)
}

func (h *Handler) Debug(msg string, args ...any) {
	h.emit(h.logger.Debug(), msg, args)
}

// emit applies alternating key/value args to the event.
// A trailing key with no value is logged as-is under the "arg" key.
func (h *Handler) emit(e *zerolog.Event, msg string, args []any) {
	i := 0
	for ; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		e = e.Interface(key, args[i+1])
	}
	if i < len(args) {
		e = e.Interface("arg", args[i])
	}
	e.Msg(msg)
}
