package tether

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tetherd/tether.go/pkg/logger"
)

const (
	// DefaultRetryInterval is the fixed wait between attempts when
	// WithRetryInterval is not given.
	DefaultRetryInterval = 1000 * time.Millisecond

	// DefaultRetryAttempts is the number of attempts permitted per episode
	// when WithRetryAttempts is not given.
	DefaultRetryAttempts = 10
)

// settings holds everything configurable through options. Hook and provider
// fields that depend on the handle type are constructor arguments instead,
// which keeps the options free of type parameters.
type settings struct {
	retryInterval  time.Duration
	retryAttempts  int
	retryScheduled func(delay time.Duration, remaining int)
	retryFailure   func(err error, remaining int)
	failure        func(err error)
	initialOneShot bool
	logger         logger.Logger
}

// Option configures a Supervisor at construction time. The resulting
// configuration is immutable once New returns.
type Option func(*settings) error

// WithRetryInterval sets the fixed delay between attempts. Zero is valid
// and means retries happen immediately.
func WithRetryInterval(d time.Duration) Option {
	return func(s *settings) error {
		if d < 0 {
			return fmt.Errorf("retry interval must not be negative, got %v", d)
		}
		s.retryInterval = d
		return nil
	}
}

// WithRetryAttempts sets the number of attempts permitted per episode.
// Note that the first attempt of an episode is always made: configuring
// zero attempts behaves like configuring one.
func WithRetryAttempts(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return fmt.Errorf("retry attempts must not be negative, got %d", n)
		}
		s.retryAttempts = n
		return nil
	}
}

// WithRetryScheduledHook registers a hook invoked with the delay and the
// attempts remaining before each retry wait begins.
func WithRetryScheduledHook(fn func(delay time.Duration, remaining int)) Option {
	return func(s *settings) error {
		s.retryScheduled = fn
		return nil
	}
}

// WithRetryFailureHook registers a hook invoked with the attempt error and
// the attempts remaining immediately after each failed attempt.
func WithRetryFailureHook(fn func(err error, remaining int)) Option {
	return func(s *settings) error {
		s.retryFailure = fn
		return nil
	}
}

// WithFailureHook replaces the terminal-failure policy. The default is
// ExitOnFailure: a supervisor in permanent failure terminates the process.
func WithFailureHook(fn func(err error)) Option {
	return func(s *settings) error {
		s.failure = fn
		return nil
	}
}

// WithInitialOneShot restricts the initial connection to a single attempt,
// regardless of the configured retry budget. Reconnection episodes after a
// loss still get the full budget.
//
// This makes a misconfigured application (wrong URL, bad credentials) fail
// fast on startup instead of retrying an attempt that can never succeed,
// while pre-existing sessions that break at runtime are still repaired.
func WithInitialOneShot() Option {
	return func(s *settings) error {
		s.initialOneShot = true
		return nil
	}
}

// WithLogger sets the logger used for state transitions and retry
// activity. The default discards all output.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		s.logger = l
		return nil
	}
}

func defaultSettings() settings {
	return settings{
		retryInterval: DefaultRetryInterval,
		retryAttempts: DefaultRetryAttempts,
		logger:        logger.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
