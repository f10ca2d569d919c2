package tether

import (
	"time"
)

// ConnectFunc is invoked with the new handle on every successful connect
// and reconnect, after the connection is fully established. Re-applying
// protocol state such as subscriptions belongs here.
type ConnectFunc[C any] func(handle C)

// DisconnectFunc is invoked once per lost connection with the loss error
// and the provider's diagnostic detail. Its return value is the
// acknowledgement that gates reconnection: nil lets the retry loop start
// with a fresh budget, while a non-nil error fails the supervisor
// immediately, with zero retry attempts for that episode.
//
// The hook may block; the supervisor waits for the acknowledgement before
// doing anything else.
type DisconnectFunc func(err error, detail any) error

// notifier dispatches the caller-supplied lifecycle hooks. The connected
// and disconnected hooks are required; the others default to no-ops.
// Apart from the disconnect acknowledgement, hook results never influence
// control flow.
type notifier[C any] struct {
	connected      ConnectFunc[C]
	disconnected   DisconnectFunc
	retryScheduled func(delay time.Duration, remaining int)
	retryFailure   func(err error, remaining int)
	failure        func(err error)
}

func (n *notifier[C]) notifyConnected(handle C) {
	n.connected(handle)
}

func (n *notifier[C]) notifyDisconnected(err error, detail any) error {
	return n.disconnected(err, detail)
}

func (n *notifier[C]) notifyRetryScheduled(delay time.Duration, remaining int) {
	if n.retryScheduled != nil {
		n.retryScheduled(delay, remaining)
	}
}

func (n *notifier[C]) notifyRetryFailure(err error, remaining int) {
	if n.retryFailure != nil {
		n.retryFailure(err, remaining)
	}
}

func (n *notifier[C]) notifyFailure(err error) {
	n.failure(err)
}
