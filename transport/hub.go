// Package transport defines how payloads reach peers and provides an
// in-memory hub that connects endpoints within one process.
package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/seehuhn/mt19937"
	"go.uber.org/zap"
)

var (
	ErrUnknownPeer = errors.New("transport: unknown peer")
	ErrPeerExists  = errors.New("transport: peer already joined")
)

// HubOpt configures a Hub.
type HubOpt func(*Hub)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) HubOpt {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithShuffle delivers each flushed batch in random order.
func WithShuffle(seed uint64) HubOpt {
	return func(h *Hub) {
		h.rng = newRand(seed)
		h.shuffle = true
	}
}

// WithDuplicates delivers each message twice with probability p.
func WithDuplicates(p float64) HubOpt {
	return func(h *Hub) {
		h.duplicate = p
	}
}

func newRand(seed uint64) *rand.Rand {
	mt := mt19937.New()
	mt.Seed(int64(seed))
	return rand.New(mt)
}

type message struct {
	from, to Peer
	data     []byte
}

// Hub is an in-memory network. Sent messages are queued and delivered by
// Flush on the caller's goroutine, which keeps tests deterministic.
type Hub struct {
	logger    *zap.Logger
	rng       *rand.Rand
	shuffle   bool
	duplicate float64

	mu        sync.Mutex
	endpoints map[Peer]*Endpoint
	queue     []message
}

func NewHub(opts ...HubOpt) *Hub {
	h := &Hub{
		logger:    zap.NewNop(),
		endpoints: make(map[Peer]*Endpoint),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.rng == nil {
		h.rng = newRand(1)
	}
	return h
}

// Join attaches a new endpoint for peer.
func (h *Hub) Join(peer Peer) (*Endpoint, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.endpoints[peer]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPeerExists, peer)
	}
	e := &Endpoint{hub: h, self: peer}
	h.endpoints[peer] = e
	return e, nil
}

// Leave detaches peer. Messages already queued for it are dropped on Flush.
func (h *Hub) Leave(peer Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.endpoints, peer)
}

// Pending returns the number of queued messages.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

func (h *Hub) enqueue(msg message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.endpoints[msg.to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, msg.to)
	}
	h.queue = append(h.queue, msg)
	queued.Inc()
	sentBytes.Add(float64(len(msg.data)))
	return nil
}

// Flush delivers queued messages until the queue is empty, including
// messages sent by handlers while flushing. Handler errors are logged and
// returned joined; they do not stop delivery.
func (h *Hub) Flush(ctx context.Context) error {
	var errs []error
	for {
		batch := h.take()
		if len(batch) == 0 {
			return errors.Join(errs...)
		}
		for _, msg := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			h.mu.Lock()
			e := h.endpoints[msg.to]
			h.mu.Unlock()
			if e == nil {
				continue
			}
			if err := e.deliver(ctx, msg); err != nil {
				failed.Inc()
				h.logger.Debug("handler failed",
					zap.String("from", string(msg.from)),
					zap.String("to", string(msg.to)),
					zap.Error(err),
				)
				errs = append(errs, err)
				continue
			}
			delivered.Inc()
		}
	}
}

func (h *Hub) take() []message {
	h.mu.Lock()
	defer h.mu.Unlock()
	batch := h.queue
	h.queue = nil
	if h.duplicate > 0 {
		for i, n := 0, len(batch); i < n; i++ {
			if h.rng.Float64() < h.duplicate {
				batch = append(batch, batch[i])
				duplicated.Inc()
			}
		}
	}
	if h.shuffle {
		h.rng.Shuffle(len(batch), func(i, j int) {
			batch[i], batch[j] = batch[j], batch[i]
		})
	}
	return batch
}

// Endpoint is one peer's attachment to a Hub. It implements Transport.
type Endpoint struct {
	hub  *Hub
	self Peer

	mu      sync.Mutex
	handler Handler
}

var _ Transport = (*Endpoint)(nil)

func (e *Endpoint) Self() Peer { return e.self }

// Send queues a copy of data for delivery to peer.
func (e *Endpoint) Send(ctx context.Context, to Peer, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.hub.enqueue(message{
		from: e.self,
		to:   to,
		data: append([]byte(nil), data...),
	})
}

func (e *Endpoint) Receive(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

func (e *Endpoint) deliver(ctx context.Context, msg message) error {
	e.mu.Lock()
	handler := e.handler
	e.mu.Unlock()
	if handler == nil {
		return nil
	}
	return handler(ctx, msg.from, msg.data)
}
