package transport

import "context"

//go:generate mockgen -typed -package=transport -destination=./mocks.go -source=./interface.go

// Peer identifies a remote endpoint.
type Peer string

// Handler consumes a message received from a peer.
type Handler func(ctx context.Context, from Peer, data []byte) error

// Transport moves opaque payloads between peers. Delivery may be unordered,
// duplicated or lossy; framing and congestion control are the transport's
// concern.
type Transport interface {
	Send(ctx context.Context, to Peer, data []byte) error
	Receive(handler Handler)
}
