package provider

// Notification is a message pushed by the remote end of a connection,
// outside the request/response cycle. Providers that speak a pub/sub
// protocol deliver parsed notifications to the application through a
// channel of these.
//
// Payload is the encoded message body; decoding it is up to the consumer,
// which knows what it subscribed to.
type Notification struct {
	Channel string
	Payload []byte
}
