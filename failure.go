package tether

import (
	"os"

	"github.com/tetherd/tether.go/pkg/logger"
)

// ExitOnFailure returns the default terminal-failure policy: log the error
// and terminate the process with a non-zero exit code.
//
// A supervisor in permanent failure should not leave the application in a
// silently degraded state. When the process runs under a process manager or
// a container orchestrator, exiting lets the manager restart it, and lets a
// crash-looping application surface as something an operator must fix.
func ExitOnFailure(log logger.Logger) func(error) {
	return func(err error) {
		log.Error("tether.Supervisor permanently failed, terminating process", "error", err)
		os.Exit(1)
	}
}

// LogOnFailure returns a terminal-failure policy that only logs the error,
// for applications that prefer to keep running in a degraded state and
// handle recovery themselves.
func LogOnFailure(log logger.Logger) func(error) {
	return func(err error) {
		log.Error("tether.Supervisor permanently failed", "error", err)
	}
}
