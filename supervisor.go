package tether

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tetherd/tether.go/pkg/logger"
	"github.com/tetherd/tether.go/pkg/provider"
)

// Supervisor maintains one logical connection of handle type C.
//
// A Supervisor moves through exactly one activity at a time: connecting,
// holding a live connection, or waiting out a retry delay. Connection
// attempts never overlap and the retry timer only starts after the failed
// attempt's hooks have run.
//
// A Supervisor instance must not be started more than once. Multiple
// independent instances against the same provider are permitted but are
// not coordinated with each other.
type Supervisor[C any] struct {
	provider provider.Provider[C]
	notifier notifier[C]

	retryInterval  time.Duration
	retryAttempts  int
	initialOneShot bool

	logger logger.Logger

	// state is guarded by stateMu. All transitions go through
	// transitionTo so that invalid ones are caught.
	state   State
	stateMu sync.Mutex

	// handle is the currently live connection. Exactly one live handle
	// exists at a time; it is owned by this Supervisor from the moment
	// the provider resolves it until loss is reported.
	handle C

	// failOnce ensures the failure hook runs at most once per instance.
	failOnce sync.Once
}

// New validates the configuration and returns a Supervisor ready to Start.
// The provider and the connect and disconnect hooks are required; all
// other knobs default per the With* options.
func New[C any](
	p provider.Provider[C],
	onConnect ConnectFunc[C],
	onDisconnect DisconnectFunc,
	opts ...Option,
) (*Supervisor[C], error) {
	if p == nil {
		return nil, fmt.Errorf("tether: a provider is required")
	}
	if onConnect == nil {
		return nil, fmt.Errorf("tether: a connect hook is required")
	}
	if onDisconnect == nil {
		return nil, fmt.Errorf("tether: a disconnect hook is required")
	}

	conf := defaultSettings()
	for _, opt := range opts {
		if err := opt(&conf); err != nil {
			return nil, fmt.Errorf("tether: invalid option: %w", err)
		}
	}
	if conf.failure == nil {
		conf.failure = ExitOnFailure(conf.logger)
	}

	return &Supervisor[C]{
		provider: p,
		notifier: notifier[C]{
			connected:      onConnect,
			disconnected:   onDisconnect,
			retryScheduled: conf.retryScheduled,
			retryFailure:   conf.retryFailure,
			failure:        conf.failure,
		},
		retryInterval:  conf.retryInterval,
		retryAttempts:  conf.retryAttempts,
		initialOneShot: conf.initialOneShot,
		logger:         conf.logger,
		state:          StateIdle,
	}, nil
}

// Start runs the initial connection episode and settles exactly once:
// with the handle after the connection succeeded and the connect hook ran,
// or with the terminal error after the retry budget was exhausted and the
// failure hook ran.
//
// Later reconnection episodes triggered by loss notifications do not
// re-settle Start; their outcome is observable only through the hooks.
//
// The context applies to the initial episode only. Canceling it abandons
// the supervisor: Start returns the context error and the failure hook is
// not invoked, since abandonment is caller-initiated rather than a
// connection failure.
func (sup *Supervisor[C]) Start(ctx context.Context) (C, error) {
	var zero C

	if err := sup.transitionTo(StateConnecting); err != nil {
		return zero, fmt.Errorf("tether: Start: %w", err)
	}

	attempts := sup.retryAttempts
	if sup.initialOneShot {
		attempts = 1
	}

	return sup.runEpisode(ctx, newBudget(attempts, sup.retryInterval))
}

// State reports the supervisor's current state.
func (sup *Supervisor[C]) State() State {
	sup.stateMu.Lock()
	defer sup.stateMu.Unlock()

	return sup.state
}

// Handle returns the live connection handle, and whether one exists.
// There is never more than one live handle per supervisor.
func (sup *Supervisor[C]) Handle() (C, bool) {
	sup.stateMu.Lock()
	defer sup.stateMu.Unlock()

	var zero C
	if sup.state != StateConnected {
		return zero, false
	}
	return sup.handle, true
}

// runEpisode drives one episode: repeated connection attempts separated by
// the fixed delay, until one succeeds or the budget is exhausted. The
// supervisor must already be in StateConnecting.
func (sup *Supervisor[C]) runEpisode(ctx context.Context, b *budget) (C, error) {
	var zero C

	attempt := 0
	for {
		attempt++
		sup.logger.Debug("attempting connection", "attempt", attempt)

		handle, err := sup.provider.Connect(ctx, sup.handleLoss)
		if err == nil {
			if terr := sup.transitionTo(StateConnected); terr != nil {
				sup.logger.Error("BUG: tether.Supervisor failed to transition to connected state", "error", terr)
			}
			sup.storeHandle(handle)
			sup.logger.Info("connection established", "attempt", attempt)
			sup.notifier.notifyConnected(handle)
			return handle, nil
		}

		remaining := b.fail()
		sup.logger.Info("connection attempt failed", "error", err, "attempts_remaining", remaining)
		sup.notifier.notifyRetryFailure(err, remaining)

		if remaining < 1 {
			ferr := &RetriesExhaustedError{Attempts: attempt, Err: err}
			sup.fail(ferr)
			return zero, ferr
		}

		sup.notifier.notifyRetryScheduled(b.interval, remaining)
		sup.logger.Debug("retry scheduled", "delay", b.interval, "attempts_remaining", remaining)

		if werr := b.wait(ctx); werr != nil {
			// Caller abandoned the supervisor. Not a connection failure,
			// so the failure hook stays silent.
			if terr := sup.transitionTo(StateFailed); terr != nil {
				sup.logger.Error("BUG: tether.Supervisor failed to transition to failed state", "error", terr)
			}
			return zero, werr
		}
	}
}

// handleLoss is the loss callback armed on every established connection.
// It runs the disconnect hook, and either starts a fresh reconnection
// episode or fails the supervisor, depending on the acknowledgement.
func (sup *Supervisor[C]) handleLoss(loss provider.Loss) {
	if err := sup.transitionTo(StateDisconnecting); err != nil {
		// A loss notification while no handle is live violates the
		// provider contract; drop it rather than corrupt the state.
		sup.logger.Warn("ignoring unexpected loss notification", "error", err, "loss_error", loss.Err)
		return
	}

	sup.logger.Info("connection lost", "error", loss.Err)

	if ackErr := sup.notifier.notifyDisconnected(loss.Err, loss.Detail); ackErr != nil {
		sup.logger.Error("disconnect acknowledgement rejected", "error", ackErr)
		sup.fail(ackErr)
		return
	}

	if err := sup.transitionTo(StateConnecting); err != nil {
		sup.logger.Error("BUG: tether.Supervisor failed to transition to connecting state", "error", err)
		return
	}

	// Attempts consumed by earlier episodes are irrelevant here: every
	// reconnection episode gets the full configured budget.
	_, _ = sup.runEpisode(context.Background(), newBudget(sup.retryAttempts, sup.retryInterval))
}

// fail transitions to the terminal state and invokes the failure hook,
// at most once per instance and always as the last event.
func (sup *Supervisor[C]) fail(err error) {
	if terr := sup.transitionTo(StateFailed); terr != nil {
		sup.logger.Error("BUG: tether.Supervisor failed to transition to failed state", "error", terr)
	}

	sup.failOnce.Do(func() {
		sup.notifier.notifyFailure(err)
	})
}

func (sup *Supervisor[C]) storeHandle(handle C) {
	sup.stateMu.Lock()
	sup.handle = handle
	sup.stateMu.Unlock()
}

func (sup *Supervisor[C]) transitionTo(newState State) error {
	sup.stateMu.Lock()
	defer sup.stateMu.Unlock()

	if err := sup.state.validateTransitionTo(newState); err != nil {
		return err
	}

	sup.state = newState
	sup.logger.Debug("tether.Supervisor state transitioned", "new_state", newState)

	return nil
}
