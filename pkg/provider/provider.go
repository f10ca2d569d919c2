// Package provider defines the contract between the tether supervisor and
// the component that actually establishes connections.
//
// A Provider owns everything protocol-specific: dialing the transport,
// performing the session handshake, issuing commands such as subscribe or
// listen, and parsing incoming notifications. The supervisor only asks it
// for one connection at a time and expects to be told, once, when that
// connection breaks.
package provider

import (
	"context"
)

// Loss describes a broken connection.
//
// Err is the error that broke the connection. Detail carries
// provider-specific diagnostic context, such as the last frame read or the
// remote address, and may be nil.
type Loss struct {
	Err    error
	Detail any
}

// LossFunc is the callback a Provider invokes when an established
// connection breaks.
type LossFunc func(Loss)

// Provider establishes connections of type C and reports their loss.
//
// Connect either returns an established connection handle or an error.
// When it returns a handle, the provider must arrange for onLoss to be
// invoked exactly once if that handle later breaks. The provider must not
// invoke onLoss for a handle it never returned, and must not invoke it
// more than once per handle. The supervisor does not defend against a
// provider that violates this.
//
// Connect is never called concurrently for the same supervisor instance.
type Provider[C any] interface {
	Connect(ctx context.Context, onLoss LossFunc) (C, error)
}

// Func adapts a plain function to the Provider interface.
type Func[C any] func(ctx context.Context, onLoss LossFunc) (C, error)

func (f Func[C]) Connect(ctx context.Context, onLoss LossFunc) (C, error) {
	return f(ctx, onLoss)
}
