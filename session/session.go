// Package session ties a dispatch table, a transport and the replication
// machinery into one endpoint. A host session spawns authoritative objects
// and streams their changes to clients that completed the handshake; a
// client session mirrors them.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-netstate/codec"
	"github.com/spacemeshos/go-netstate/dispatch"
	"github.com/spacemeshos/go-netstate/log"
	"github.com/spacemeshos/go-netstate/replica"
	"github.com/spacemeshos/go-netstate/transport"
)

// Message kinds, the first byte of every message.
const (
	msgHello byte = iota + 1
	msgPayload
)

// framed prefixes replica payloads with their message kind.
type framed struct {
	transport transport.Transport
}

func (f framed) Send(ctx context.Context, to transport.Peer, data []byte) error {
	msg := make([]byte, 0, len(data)+1)
	msg = append(msg, msgPayload)
	msg = append(msg, data...)
	return f.transport.Send(ctx, to, msg)
}

type Session struct {
	logger    *zap.Logger
	clock     clockwork.Clock
	cfg       Config
	table     *dispatch.Table
	transport transport.Transport

	registry   *replica.Registry
	aggregator *replica.Aggregator
	applier    *replica.Applier

	mu     sync.Mutex
	hello  Hello
	peers  map[transport.Peer]struct{}
	cancel context.CancelFunc
}

// New validates and seals table and builds the replication components for
// cfg.Role.
func New(cfg Config, table *dispatch.Table, tr transport.Transport, opts ...Opt) (*Session, error) {
	o := options{
		logger: zap.NewNop(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", cfg.TickInterval)
	}
	if err := table.Validate(o.schema...); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	table.Seal()

	s := &Session{
		logger:    o.logger,
		clock:     o.clock,
		cfg:       cfg,
		table:     table,
		transport: tr,
		peers:     make(map[transport.Peer]struct{}),
		hello: Hello{
			SchemaHash: table.Hash(),
			Version:    cfg.Version,
		},
	}
	if o.replica == nil {
		o.replica = o.logger.Named("replica")
	}
	ropts := []replica.Opt{
		replica.WithLogger(o.replica),
		replica.WithClock(o.clock),
	}
	s.registry = replica.NewRegistry(ropts...)
	switch cfg.Role {
	case Host:
		s.hello.SessionID = o.id
		if s.hello.SessionID == uuid.Nil {
			s.hello.SessionID = uuid.New()
		}
		s.aggregator = replica.NewAggregator(cfg.Replica, framed{tr}, ropts...)
		s.registry.Subscribe(s.aggregator)
	case Client:
		s.applier = replica.NewApplier(cfg.Replica, s.registry, ropts...)
		s.registry.Subscribe(s.applier)
	default:
		return nil, fmt.Errorf("unknown role %q", cfg.Role)
	}
	tr.Receive(s.handle)
	s.logger.Info("session created",
		zap.String("role", string(cfg.Role)),
		zap.Stringer("id", s.hello.SessionID),
		log.SchemaHash(s.hello.SchemaHash),
		zap.Int("keys", table.Len()),
	)
	return s, nil
}

func (s *Session) Role() Role { return s.cfg.Role }

// ID returns the session id. On a client it is nil until the host answered
// the handshake.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hello.SessionID
}

func (s *Session) Table() *dispatch.Table { return s.table }

func (s *Session) Registry() *replica.Registry { return s.registry }

// Connect sends a hello to the host. Payloads from host are accepted once
// it answered.
func (s *Session) Connect(ctx context.Context, host transport.Peer) error {
	if s.cfg.Role != Client {
		return fmt.Errorf("%w: connect on %s", ErrWrongRole, s.cfg.Role)
	}
	return s.sendHello(ctx, host)
}

// Peers returns the peers that completed the handshake.
func (s *Session) Peers() []transport.Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.peers))
}

// Spawn registers obj. On the host every connected peer starts observing
// it. On a client obj is the local mirror of a host object with the same id.
func (s *Session) Spawn(obj *replica.Object) error {
	if err := s.registry.Spawn(obj); err != nil {
		return err
	}
	if s.cfg.Role != Host {
		return nil
	}
	for _, peer := range s.Peers() {
		if err := s.aggregator.AddObserver(obj.ID(), peer); err != nil {
			return err
		}
	}
	return nil
}

// Despawn removes the object. A client drops payloads that still arrive
// for it.
func (s *Session) Despawn(id replica.ObjectID) bool {
	return s.registry.Despawn(id)
}

// Observe subscribes a connected peer to an object on the host.
func (s *Session) Observe(id replica.ObjectID, peer transport.Peer) error {
	if s.cfg.Role != Host {
		return fmt.Errorf("%w: observe on %s", ErrWrongRole, s.cfg.Role)
	}
	s.mu.Lock()
	_, ok := s.peers[peer]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, peer)
	}
	return s.aggregator.AddObserver(id, peer)
}

// Unobserve stops sending changes of the object to peer.
func (s *Session) Unobserve(id replica.ObjectID, peer transport.Peer) {
	if s.cfg.Role == Host {
		s.aggregator.RemoveObserver(id, peer)
	}
}

// Tick runs one round: the host sends pending changes, a client expires
// buffered payloads.
func (s *Session) Tick(ctx context.Context) error {
	start := s.clock.Now()
	defer func() {
		ticks.Inc()
		tickDuration.Observe(s.clock.Since(start).Seconds())
	}()
	switch s.cfg.Role {
	case Host:
		if err := s.aggregator.Tick(ctx); err != nil {
			tickErrors.Inc()
			return err
		}
	case Client:
		if n := s.applier.Sweep(); n > 0 {
			s.logger.Debug("expired buffered payloads", zap.Int("count", n))
		}
	}
	return nil
}

// Flush sends every pending change on the host, ignoring per-object sync
// intervals.
func (s *Session) Flush(ctx context.Context) error {
	if s.cfg.Role != Host {
		return fmt.Errorf("%w: flush on %s", ErrWrongRole, s.cfg.Role)
	}
	return s.aggregator.Flush(ctx)
}

// Run calls Tick every TickInterval until ctx is canceled or Stop is
// called. Tick errors are logged and do not stop the loop.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		cancel()
		return errors.New("session is already running")
	}
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	var eg errgroup.Group
	eg.Go(func() error {
		ticker := s.clock.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.Chan():
				if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
					s.logger.Warn("tick failed", zap.Error(err))
				}
			}
		}
	})
	s.logger.Info("session started", zap.Duration("tick", s.cfg.TickInterval))
	err := eg.Wait()
	s.logger.Info("session stopped")
	return err
}

// Stop ends Run.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) sendHello(ctx context.Context, to transport.Peer) error {
	s.mu.Lock()
	hello := s.hello
	s.mu.Unlock()
	data, err := codec.Encode(&hello)
	if err != nil {
		return fmt.Errorf("encode hello: %w", err)
	}
	return s.transport.Send(ctx, to, append([]byte{msgHello}, data...))
}

func (s *Session) handle(ctx context.Context, from transport.Peer, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty message from %s", ErrUnknownMessage, from)
	}
	switch data[0] {
	case msgHello:
		return s.handleHello(ctx, from, data[1:])
	case msgPayload:
		if s.cfg.Role != Client {
			return fmt.Errorf("%w: payload from %s", ErrWrongRole, from)
		}
		s.mu.Lock()
		_, ok := s.peers[from]
		s.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: payload from %s", ErrNotConnected, from)
		}
		return s.applier.HandlePayload(ctx, from, data[1:])
	default:
		return fmt.Errorf("%w: kind %d from %s", ErrUnknownMessage, data[0], from)
	}
}

func (s *Session) handleHello(ctx context.Context, from transport.Peer, data []byte) error {
	var remote Hello
	if err := codec.Decode(data, &remote); err != nil {
		rejectedHandshakes.Inc()
		return fmt.Errorf("decode hello from %s: %w", from, err)
	}
	s.mu.Lock()
	local := s.hello
	s.mu.Unlock()
	if err := CheckHello(local, remote); err != nil {
		rejectedHandshakes.Inc()
		s.logger.Warn("rejected hello",
			log.Peer(string(from)),
			log.SchemaHash(remote.SchemaHash),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.peers[from] = struct{}{}
	if s.cfg.Role == Client {
		s.hello.SessionID = remote.SessionID
	}
	s.mu.Unlock()
	acceptedHandshakes.Inc()
	s.logger.Info("peer connected",
		log.Peer(string(from)),
		zap.Stringer("session", remote.SessionID),
	)
	if s.cfg.Role != Host {
		return nil
	}
	var errs []error
	s.registry.Range(func(obj *replica.Object) bool {
		if err := s.aggregator.AddObserver(obj.ID(), from); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return s.sendHello(ctx, from)
}
