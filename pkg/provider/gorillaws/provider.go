// Package gorillaws provides a WebSocket connection provider for the
// tether supervisor, built on gorilla/websocket.
//
// The provider speaks a small pub/sub RPC protocol: subscribe,
// unsubscribe and publish commands with correlated responses, plus
// server-pushed notifications for subscribed channels. Frames are encoded
// with the configured codec, CBOR by default.
//
// Loss detection is driven by the read pump: when a read fails on a
// connection that was not closed locally, the loss callback armed at
// Connect time fires exactly once for that handle.
package gorillaws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/tetherd/tether.go/internal/codec"
	"github.com/tetherd/tether.go/pkg/logger"
	"github.com/tetherd/tether.go/pkg/provider"
)

// DefaultDialer is the gorilla dialer used when Config.Dialer is nil.
//
// It is the default gorilla dialer as of gorilla/websocket v1.5.0 with
// compression enabled and the cbor subprotocol advertised.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
	Subprotocols:      []string{"cbor"},
}

// DefaultTimeout bounds waiting for a command response when
// Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config configures a Provider. Only URL is required.
type Config struct {
	// URL is the WebSocket endpoint, e.g. ws://localhost:8000/pubsub.
	URL string

	// Dialer defaults to DefaultDialer.
	Dialer *gorilla.Dialer

	// Marshaler and Unmarshaler encode and decode wire frames.
	// Both default to the CBOR codec.
	Marshaler   codec.Marshaler
	Unmarshaler codec.Unmarshaler

	// Timeout bounds waiting for a command response. Defaults to
	// DefaultTimeout; negative disables the bound entirely.
	Timeout time.Duration

	// Logger defaults to discarding all output.
	Logger logger.Logger
}

// Provider dials WebSocket connections on demand. It implements
// provider.Provider[*Conn].
type Provider struct {
	url       string
	dialer    *gorilla.Dialer
	marshaler codec.Marshaler
	unmarshal codec.Unmarshaler
	timeout   time.Duration
	logger    logger.Logger
}

var _ provider.Provider[*Conn] = (*Provider)(nil)

// New returns a Provider with defaults applied for every unset Config
// field.
func New(conf *Config) *Provider {
	p := &Provider{
		url:       conf.URL,
		dialer:    conf.Dialer,
		marshaler: conf.Marshaler,
		unmarshal: conf.Unmarshaler,
		timeout:   conf.Timeout,
		logger:    conf.Logger,
	}

	if p.dialer == nil {
		p.dialer = DefaultDialer
	}
	if p.marshaler == nil {
		p.marshaler = codec.CborMarshaler{}
	}
	if p.unmarshal == nil {
		p.unmarshal = codec.CborUnmarshaler{}
	}
	if p.timeout == 0 {
		p.timeout = DefaultTimeout
	} else if p.timeout < 0 {
		p.timeout = 0
	}
	if p.logger == nil {
		p.logger = logger.New(slog.NewTextHandler(io.Discard, nil))
	}

	return p
}

// Connect dials the configured endpoint and returns an established Conn
// with its read pump running. The onLoss callback is armed on the new
// handle and fires at most once, if and when that handle breaks.
func (p *Provider) Connect(ctx context.Context, onLoss provider.LossFunc) (*Conn, error) {
	wsConn, res, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("gorillaws: failed to dial %s: %w", p.url, err)
	}
	defer res.Body.Close()

	c := &Conn{
		conn:          wsConn,
		marshaler:     p.marshaler,
		unmarshaler:   p.unmarshal,
		logger:        p.logger,
		timeout:       p.timeout,
		remoteAddr:    wsConn.RemoteAddr().String(),
		responses:     make(map[string]chan rpcFrame),
		notifications: make(chan provider.Notification, notificationBuffer),
		closeCh:       make(chan struct{}),
		onLoss:        onLoss,
	}

	go c.readLoop()

	p.logger.Debug("gorillaws.Provider established connection", "remote_addr", c.remoteAddr)

	return c, nil
}
