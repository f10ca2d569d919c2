// Package fakeserver provides a fake pub/sub WebSocket server for testing
// purposes. It speaks the same RPC protocol as the gorillaws provider and
// includes failure injection capabilities: rejecting upgrades so that
// connection attempts fail, and dropping established connections so that
// clients observe a loss.
//
// There is no executable binary for this package; it is used as a library
// by the provider and listener tests.
package fakeserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/tetherd/tether.go/internal/codec"
)

// request and frame mirror the gorillaws wire protocol.
type request struct {
	ID     string `cbor:"id"`
	Method string `cbor:"method"`
	Params []any  `cbor:"params,omitempty"`
}

type rpcError struct {
	Code    int    `cbor:"code"`
	Message string `cbor:"message"`
}

type frame struct {
	ID      string    `cbor:"id,omitempty"`
	Error   *rpcError `cbor:"error,omitempty"`
	Channel string    `cbor:"channel,omitempty"`
	Payload []byte    `cbor:"payload,omitempty"`
}

type client struct {
	conn *gorilla.Conn

	// writeMu serializes writes: the reply path and broadcasts from
	// other clients run on different goroutines.
	writeMu sync.Mutex

	channels map[string]bool
}

func (cl *client) writeFrame(m codec.Marshaler, f *frame) error {
	data, err := m.Marshal(f)
	if err != nil {
		return err
	}

	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteMessage(gorilla.BinaryMessage, data)
}

// Server is a fake pub/sub server listening on a loopback port.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	upgrader   gorilla.Upgrader

	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler

	mu             sync.Mutex
	clients        map[*client]struct{}
	rejectUpgrades bool
	responseDelay  time.Duration
}

// New starts a Server on an ephemeral loopback port.
func New() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:    ln,
		marshaler:   codec.CborMarshaler{},
		unmarshaler: codec.CborUnmarshaler{},
		clients:     make(map[*client]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/pubsub", s.handle)
	s.httpServer = &http.Server{Handler: mux}

	go func() {
		_ = s.httpServer.Serve(ln)
	}()

	return s, nil
}

// URL returns the WebSocket endpoint clients should dial.
func (s *Server) URL() string {
	return "ws://" + s.listener.Addr().String() + "/pubsub"
}

// Close shuts the server down, dropping every active connection.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// RejectUpgrades makes subsequent connection attempts fail with an HTTP
// error before the WebSocket upgrade, until called again with false.
func (s *Server) RejectUpgrades(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectUpgrades = reject
}

// SetResponseDelay delays every command response by d.
func (s *Server) SetResponseDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseDelay = d
}

// DropConnections abruptly closes every established connection without a
// close handshake, the way a crashed server would.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for cl := range s.clients {
		_ = cl.conn.UnderlyingConn().Close()
	}
}

// CloseConnections closes every established connection with a proper
// WebSocket close handshake, the way a gracefully shutting down server
// would. Clients still observe this as the end of the connection.
func (s *Server) CloseConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := gorilla.FormatCloseMessage(gorilla.CloseGoingAway, "server shutting down")
	for cl := range s.clients {
		cl.writeMu.Lock()
		_ = cl.conn.WriteMessage(gorilla.CloseMessage, msg)
		cl.writeMu.Unlock()
		_ = cl.conn.Close()
	}
}

// ClientCount reports the number of currently established connections.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Publish broadcasts a payload to every client subscribed to the channel,
// as if another publisher had sent it.
func (s *Server) Publish(channel string, payload []byte) {
	s.broadcast(channel, payload)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	reject := s.rejectUpgrades
	s.mu.Unlock()

	if reject {
		http.Error(w, "upgrades are rejected", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cl := &client{
		conn:     conn,
		channels: make(map[string]bool),
	}

	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, cl)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		s.handleRequest(cl, data)
	}
}

func (s *Server) handleRequest(cl *client, data []byte) {
	var req request
	if err := s.unmarshaler.Unmarshal(data, &req); err != nil {
		// Not a valid request frame; a real server would close here, but
		// for tests it is more useful to keep the connection alive.
		return
	}

	s.mu.Lock()
	delay := s.responseDelay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	switch req.Method {
	case "subscribe":
		channel, ok := stringParam(req.Params, 0)
		if !ok {
			s.replyError(cl, req.ID, 400, "subscribe requires a channel name")
			return
		}
		s.mu.Lock()
		cl.channels[channel] = true
		s.mu.Unlock()
		s.reply(cl, req.ID)

	case "unsubscribe":
		channel, ok := stringParam(req.Params, 0)
		if !ok {
			s.replyError(cl, req.ID, 400, "unsubscribe requires a channel name")
			return
		}
		s.mu.Lock()
		delete(cl.channels, channel)
		s.mu.Unlock()
		s.reply(cl, req.ID)

	case "publish":
		channel, ok := stringParam(req.Params, 0)
		if !ok {
			s.replyError(cl, req.ID, 400, "publish requires a channel name")
			return
		}
		payload, ok := bytesParam(req.Params, 1)
		if !ok {
			s.replyError(cl, req.ID, 400, "publish requires a payload")
			return
		}
		s.broadcast(channel, payload)
		s.reply(cl, req.ID)

	default:
		s.replyError(cl, req.ID, 404, "unknown method: "+req.Method)
	}
}

func (s *Server) reply(cl *client, id string) {
	_ = cl.writeFrame(s.marshaler, &frame{ID: id})
}

func (s *Server) replyError(cl *client, id string, code int, msg string) {
	_ = cl.writeFrame(s.marshaler, &frame{
		ID:    id,
		Error: &rpcError{Code: code, Message: msg},
	})
}

func (s *Server) broadcast(channel string, payload []byte) {
	s.mu.Lock()
	subscribers := make([]*client, 0, len(s.clients))
	for cl := range s.clients {
		if cl.channels[channel] {
			subscribers = append(subscribers, cl)
		}
	}
	s.mu.Unlock()

	for _, cl := range subscribers {
		_ = cl.writeFrame(s.marshaler, &frame{Channel: channel, Payload: payload})
	}
}

func stringParam(params []any, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	v, ok := params[i].(string)
	return v, ok
}

func bytesParam(params []any, i int) ([]byte, bool) {
	if i >= len(params) {
		return nil, false
	}
	v, ok := params[i].([]byte)
	return v, ok
}
