package gorillaws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/tetherd/tether.go/internal/codec"
	"github.com/tetherd/tether.go/internal/rand"
	"github.com/tetherd/tether.go/pkg/logger"
	"github.com/tetherd/tether.go/pkg/provider"
)

// ErrClosed is returned by commands issued on a connection that has been
// closed locally or reported as lost.
var ErrClosed = errors.New("gorillaws: connection is closed")

// notificationBuffer bounds how many undelivered notifications a
// connection holds before it starts dropping them.
const notificationBuffer = 100

// LossDetail is the diagnostic context attached to loss notifications.
type LossDetail struct {
	// RemoteAddr is the server address the lost connection was dialed to.
	RemoteAddr string
}

// Conn is one established WebSocket connection: the handle type produced
// by this package's Provider.
//
// A Conn is single-session: once it is closed or lost it cannot be
// reconnected. Reconnection means asking the Provider for a new Conn,
// which is exactly what a tether.Supervisor does.
type Conn struct {
	conn *gorilla.Conn

	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger

	// timeout bounds waiting for a command response; 0 disables it and
	// leaves cancellation entirely to the caller's context.
	timeout time.Duration

	remoteAddr string

	// writeLock serializes frame writes; gorilla permits one writer.
	writeLock sync.Mutex

	respLock  sync.RWMutex
	responses map[string]chan rpcFrame

	notifications chan provider.Notification

	// closeCh signals local closure so that the read pump can tell a
	// deliberate Close apart from a lost connection.
	closeCh   chan struct{}
	closeOnce sync.Once

	// lossOnce guarantees onLoss fires at most once per handle.
	lossOnce sync.Once
	onLoss   provider.LossFunc
}

// Subscribe asks the server to deliver notifications for the channel.
func (c *Conn) Subscribe(ctx context.Context, channel string) error {
	return c.send(ctx, methodSubscribe, channel)
}

// Unsubscribe stops delivery of notifications for the channel.
func (c *Conn) Unsubscribe(ctx context.Context, channel string) error {
	return c.send(ctx, methodUnsubscribe, channel)
}

// Publish sends a payload to every subscriber of the channel.
func (c *Conn) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.send(ctx, methodPublish, channel, payload)
}

// Notifications returns the stream of parsed notifications for this
// connection. The channel is closed when the connection ends, whether by
// Close or by loss, so consumers can simply range over it.
func (c *Conn) Notifications() <-chan provider.Notification {
	return c.notifications
}

// RemoteAddr reports the server address this connection was dialed to.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// Close tears the connection down locally. It never triggers a loss
// notification: loss is reserved for connections that break unexpectedly.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})
	return c.conn.Close()
}

func (c *Conn) send(ctx context.Context, method string, params ...any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	select {
	case <-c.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	id := rand.NewRequestID(requestIDLength)

	responseChan, err := c.createResponseChannel(id)
	if err != nil {
		return err
	}
	defer c.removeResponseChannel(id)

	if err := c.write(&rpcRequest{ID: id, Method: method, Params: params}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closeCh:
		return ErrClosed
	case res, open := <-responseChan:
		if !open {
			return errors.New("gorillaws: response channel closed")
		}
		if res.Error != nil {
			return res.Error
		}
		return nil
	}
}

func (c *Conn) write(v any) error {
	data, err := c.marshaler.Marshal(v)
	if err != nil {
		return err
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.WriteMessage(gorilla.BinaryMessage, data)
}

func (c *Conn) createResponseChannel(id string) (chan rpcFrame, error) {
	c.respLock.Lock()
	defer c.respLock.Unlock()

	if _, ok := c.responses[id]; ok {
		return nil, fmt.Errorf("gorillaws: request ID already in use: %v", id)
	}

	// Buffered so a response arriving after the requester gave up does
	// not block the read pump.
	ch := make(chan rpcFrame, 1)
	c.responses[id] = ch

	return ch, nil
}

func (c *Conn) removeResponseChannel(id string) {
	c.respLock.Lock()
	defer c.respLock.Unlock()
	delete(c.responses, id)
}

func (c *Conn) getResponseChannel(id string) (chan rpcFrame, bool) {
	c.respLock.RLock()
	defer c.respLock.RUnlock()
	ch, ok := c.responses[id]
	return ch, ok
}

// readLoop reads frames until the connection ends. It runs once per Conn
// and is the only reader.
func (c *Conn) readLoop() {
	defer close(c.notifications)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
				// Deliberate local Close, not a loss.
			default:
				c.reportLoss(err)
			}
			return
		}

		c.handleFrame(data)
	}
}

// reportLoss marks the connection dead and invokes the loss callback,
// exactly once per handle.
func (c *Conn) reportLoss(err error) {
	c.lossOnce.Do(func() {
		c.logger.Error("gorillaws.Conn lost", "error", err, "remote_addr", c.remoteAddr)

		c.closeOnce.Do(func() {
			close(c.closeCh)
		})
		_ = c.conn.Close()

		if c.onLoss != nil {
			c.onLoss(provider.Loss{
				Err:    err,
				Detail: &LossDetail{RemoteAddr: c.remoteAddr},
			})
		}
	})
}

func (c *Conn) handleFrame(data []byte) {
	var frame rpcFrame
	if err := c.unmarshaler.Unmarshal(data, &frame); err != nil {
		c.logger.Error("gorillaws.Conn failed to decode frame", "error", err)
		return
	}

	if frame.ID != "" {
		responseChan, ok := c.getResponseChannel(frame.ID)
		if !ok {
			c.logger.Error("gorillaws.Conn received response for unknown request", "id", frame.ID)
			return
		}
		responseChan <- frame
		return
	}

	select {
	case c.notifications <- provider.Notification{Channel: frame.Channel, Payload: frame.Payload}:
	default:
		c.logger.Warn("gorillaws.Conn dropping notification, consumer is not keeping up",
			"channel", frame.Channel)
	}
}
