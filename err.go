package tether

import (
	"fmt"
)

// RetriesExhaustedError is the terminal error produced when every attempt
// in an episode's retry budget has failed. It wraps the error from the
// last attempt.
type RetriesExhaustedError struct {
	// Attempts is the number of connection attempts made in the episode.
	Attempts int
	// Err is the error returned by the last attempt.
	Err error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("tether: retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}
