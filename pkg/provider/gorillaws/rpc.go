package gorillaws

import "fmt"

// Method names of the pub/sub RPC protocol spoken over the WebSocket.
const (
	methodSubscribe   = "subscribe"
	methodUnsubscribe = "unsubscribe"
	methodPublish     = "publish"
)

const requestIDLength = 16

// rpcRequest is a client-to-server command frame.
type rpcRequest struct {
	ID     string `json:"id" cbor:"id"`
	Method string `json:"method" cbor:"method"`
	Params []any  `json:"params,omitempty" cbor:"params,omitempty"`
}

// rpcFrame is every server-to-client frame. Frames carrying an ID are
// responses to a request; frames without one are notifications pushed for
// a subscribed channel.
type rpcFrame struct {
	ID      string    `json:"id,omitempty" cbor:"id,omitempty"`
	Error   *RPCError `json:"error,omitempty" cbor:"error,omitempty"`
	Channel string    `json:"channel,omitempty" cbor:"channel,omitempty"`
	Payload []byte    `json:"payload,omitempty" cbor:"payload,omitempty"`
}

// RPCError is a command failure reported by the server.
type RPCError struct {
	Code    int    `json:"code" cbor:"code"`
	Message string `json:"message" cbor:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
