package tether

import "fmt"

// State is the current state of a Supervisor.
type State int

const (
	StateUnknown State = iota
	// StateIdle is the initial state before Start is called.
	StateIdle
	// StateConnecting covers both the initial connection attempt and any
	// retry attempts, including the fixed delay between them.
	StateConnecting
	// StateConnected means a live connection handle is held.
	StateConnected
	// StateDisconnecting means a loss was reported and the disconnect
	// hook's acknowledgement is pending.
	StateDisconnecting
	// StateFailed is terminal. A failed Supervisor is inert.
	StateFailed
)

func (state State) String() string {
	switch state {
	case StateUnknown:
		return "Unknown"
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	case StateFailed:
		return "Failed"
	default:
		return "InvalidState"
	}
}

func (s State) validateTransitionTo(newState State) error {
	switch s {
	case StateIdle:
		if newState == StateConnecting {
			return nil
		}
	case StateConnecting:
		switch newState {
		case StateConnected, StateFailed:
			return nil
		}
	case StateConnected:
		// Connected to Disconnecting happens when the provider reports
		// the established connection as lost.
		if newState == StateDisconnecting {
			return nil
		}
	case StateDisconnecting:
		switch newState {
		case StateConnecting, StateFailed:
			return nil
		}
	}

	return fmt.Errorf("invalid state transition from %v to %v", s, newState)
}
