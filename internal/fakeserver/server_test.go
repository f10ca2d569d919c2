package fakeserver

import (
	"net/http"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dial opens a raw WebSocket client against the server, bypassing the
// gorillaws provider so the server can be tested on its own.
func dial(t *testing.T, s *Server) *gorilla.Conn {
	t.Helper()

	conn, _, err := gorilla.DefaultDialer.Dial(s.URL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func sendRequest(t *testing.T, s *Server, conn *gorilla.Conn, req *request) frame {
	t.Helper()

	data, err := s.marshaler.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorilla.BinaryMessage, data))

	var f frame
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, s.unmarshaler.Unmarshal(data, &f))
	return f
}

func TestServerPubSub(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	sub := dial(t, s)
	resp := sendRequest(t, s, sub, &request{ID: "r1", Method: "subscribe", Params: []any{"orders"}})
	assert.Equal(t, "r1", resp.ID)
	require.Nil(t, resp.Error)

	s.Publish("orders", []byte("order-1"))

	var notification frame
	_, data, err := sub.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, s.unmarshaler.Unmarshal(data, &notification))
	assert.Empty(t, notification.ID)
	assert.Equal(t, "orders", notification.Channel)
	assert.Equal(t, []byte("order-1"), notification.Payload)
}

func TestServerRejectsUnknownMethod(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	conn := dial(t, s)
	resp := sendRequest(t, s, conn, &request{ID: "r1", Method: "bogus"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 404, resp.Error.Code)
}

func TestServerRejectUpgrades(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	s.RejectUpgrades(true)
	_, resp, err := gorilla.DefaultDialer.Dial(s.URL(), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.RejectUpgrades(false)
	conn := dial(t, s)
	require.NotNil(t, conn)
}

func TestServerDropConnections(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	conn := dial(t, s)
	require.Eventually(t, func() bool {
		return s.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	s.DropConnections()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	require.Eventually(t, func() bool {
		return s.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}
