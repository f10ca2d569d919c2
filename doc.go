// Package tether provides a reconnection supervisor: a small state machine
// that maintains exactly one logical persistent connection on top of an
// unreliable transport, detects loss, and drives a bounded, fixed-delay
// retry sequence back to a healthy state.
//
// Establishing the actual connection is delegated to a [provider.Provider].
// The provider owns everything protocol-specific: dialing, the session
// handshake, commands such as subscribe or listen, and parsing
// notifications. The supervisor only asks it for one connection at a time
// and reacts when the provider reports that connection as lost.
//
// Basic usage:
//
//	sup, err := tether.New[*myproto.Conn](
//	    prov,
//	    func(conn *myproto.Conn) {
//	        // Invoked on every successful connect and reconnect.
//	        // Re-apply protocol state (subscriptions, session vars) here.
//	    },
//	    func(err error, detail any) error {
//	        // Invoked once per lost connection. Returning a non-nil error
//	        // rejects the acknowledgement and fails the supervisor
//	        // without any retry attempts.
//	        return nil
//	    },
//	    tether.WithRetryInterval(2*time.Second),
//	    tether.WithRetryAttempts(5),
//	)
//	if err != nil {
//	    // invalid configuration
//	}
//
//	conn, err := sup.Start(ctx)
//
// Start settles exactly once: with the handle after the initial connection
// succeeded (and the connect hook ran), or with an error after the retry
// budget was exhausted. Reconnection episodes triggered by later losses do
// not re-settle Start; their outcome is observable only through the hooks.
//
// Each reconnection episode gets a fresh retry budget. The delay between
// attempts is constant; there is no backoff and no jitter.
//
// On permanent failure the supervisor invokes its failure hook exactly
// once. The default hook terminates the process, on the principle that a
// supervisor in permanent failure should not leave the application
// silently degraded; restart is then delegated to an external process
// supervisor. Use [WithFailureHook] with [LogOnFailure] or your own policy
// to override this.
//
// The supervisor does not pool or multiplex connections, does not recover
// partially-applied protocol state (that responsibility is pushed to the
// connect hook), and provides no built-in way to stop a running instance:
// abandoning it is the only stop mechanism.
package tether
