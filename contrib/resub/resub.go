// Package resub keeps channel subscriptions alive across reconnections.
//
// A Listener remembers every channel the application subscribed to and
// replays the subscriptions onto each new connection handed to it. Consumers
// hold a stable Subscription whose message channel survives reconnects, even
// though the underlying connection (and its notification stream) is replaced
// every time the transport drops.
//
// The Listener is designed to be wired into a tether supervisor: pass
// HandleConnect as the connect hook and HandleDisconnect as the disconnect
// hook.
package resub

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/tetherd/tether.go/pkg/logger"
	"github.com/tetherd/tether.go/pkg/provider"
)

// subscriptionBuffer is the capacity of each Subscription's message channel.
// Messages to a consumer that has fallen this far behind are dropped.
const subscriptionBuffer = 100

// Conn is the connection surface the Listener drives. *gorillaws.Conn
// satisfies it.
type Conn interface {
	Subscribe(ctx context.Context, channel string) error
	Unsubscribe(ctx context.Context, channel string) error
	Notifications() <-chan provider.Notification
}

// Subscription is a durable handle on one channel subscription. The same
// Subscription keeps delivering messages across reconnections; consumers
// never see the underlying connection change.
type Subscription struct {
	id       uuid.UUID
	channel  string
	messages chan provider.Notification
	listener *Listener
}

// Channel returns the channel name this subscription listens on.
func (s *Subscription) Channel() string {
	return s.channel
}

// Messages returns the stream of notifications for this subscription. The
// channel is closed by Unsubscribe and by Listener.Close.
func (s *Subscription) Messages() <-chan provider.Notification {
	return s.messages
}

// Unsubscribe removes the subscription. If it was the last one on its
// channel and a connection is live, the channel is also unsubscribed on the
// wire. The message channel is closed.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	return s.listener.unsubscribe(ctx, s)
}

// Listener tracks desired subscriptions and reapplies them on every new
// connection.
type Listener struct {
	logger logger.Logger

	// mu guards conn, subs, and closed. Dispatch to subscription channels
	// also happens under mu so a concurrent Unsubscribe can never close a
	// channel mid-send.
	mu     sync.Mutex
	conn   Conn
	subs   map[string]map[uuid.UUID]*Subscription
	closed bool
}

// New creates a Listener. The logger is required.
func New(log logger.Logger) *Listener {
	if log == nil {
		panic("resub: logger must not be nil")
	}
	return &Listener{
		logger: log,
		subs:   make(map[string]map[uuid.UUID]*Subscription),
	}
}

// Subscribe registers interest in a channel and returns a durable
// Subscription. If a connection is currently live and this is the first
// subscription on the channel, the channel is subscribed on the wire
// immediately; otherwise the wire subscription happens on the next
// HandleConnect.
func (l *Listener) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("resub: generating subscription id: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("resub: listener is closed")
	}

	sub := &Subscription{
		id:       id,
		channel:  channel,
		messages: make(chan provider.Notification, subscriptionBuffer),
		listener: l,
	}

	first := len(l.subs[channel]) == 0
	if first && l.conn != nil {
		if err := l.conn.Subscribe(ctx, channel); err != nil {
			return nil, fmt.Errorf("resub: subscribing to %q: %w", channel, err)
		}
	}

	if l.subs[channel] == nil {
		l.subs[channel] = make(map[uuid.UUID]*Subscription)
	}
	l.subs[channel][id] = sub

	l.logger.Debug("Registered subscription", "channel", channel, "id", id.String())
	return sub, nil
}

func (l *Listener) unsubscribe(ctx context.Context, sub *Subscription) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	byID, ok := l.subs[sub.channel]
	if !ok {
		return nil
	}
	if _, ok := byID[sub.id]; !ok {
		return nil
	}

	delete(byID, sub.id)
	close(sub.messages)

	if len(byID) > 0 {
		return nil
	}
	delete(l.subs, sub.channel)

	if l.conn == nil {
		return nil
	}
	if err := l.conn.Unsubscribe(ctx, sub.channel); err != nil {
		return fmt.Errorf("resub: unsubscribing from %q: %w", sub.channel, err)
	}
	return nil
}

// HandleConnect adopts a new connection: it replays every desired channel
// subscription onto it and starts routing its notifications to the durable
// subscription channels. Wire it as the supervisor's connect hook.
//
// Replay failures are logged, not fatal: a channel that could not be
// restored simply stays silent until the next reconnect.
func (l *Listener) HandleConnect(conn Conn) {
	l.mu.Lock()
	l.conn = conn
	channels := make([]string, 0, len(l.subs))
	for channel := range l.subs {
		channels = append(channels, channel)
	}
	l.mu.Unlock()

	for _, channel := range channels {
		if err := conn.Subscribe(context.Background(), channel); err != nil {
			l.logger.Error("Failed to restore subscription",
				"channel", channel,
				"error", err)
			continue
		}
		l.logger.Debug("Restored subscription", "channel", channel)
	}

	go l.route(conn)
}

// HandleDisconnect detaches the lost connection and acknowledges the loss.
// Wire it as the supervisor's disconnect hook.
func (l *Listener) HandleDisconnect(err error, detail any) error {
	l.mu.Lock()
	l.conn = nil
	l.mu.Unlock()

	l.logger.Warn("Connection lost, subscriptions will be restored on reconnect",
		"error", err,
		"detail", detail)
	return nil
}

// route pumps one connection's notification stream into the durable
// subscription channels. It exits when the stream closes, which happens on
// both loss and local close.
func (l *Listener) route(conn Conn) {
	for notification := range conn.Notifications() {
		l.dispatch(notification)
	}
	l.logger.Debug("Notification stream ended")
}

func (l *Listener) dispatch(n provider.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, sub := range l.subs[n.Channel] {
		select {
		case sub.messages <- n:
		default:
			l.logger.Warn("Dropping notification for slow subscriber",
				"channel", n.Channel,
				"id", sub.id.String())
		}
	}
}

// Close shuts the Listener down: all subscription channels are closed and
// further Subscribe calls fail. It does not touch the connection; closing
// that is the owner's job.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true

	for channel, byID := range l.subs {
		for _, sub := range byID {
			close(sub.messages)
		}
		delete(l.subs, channel)
	}
}
