package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/seehuhn/mt19937"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/config"
	"github.com/spacemeshos/go-netstate/dispatch"
	"github.com/spacemeshos/go-netstate/log"
	"github.com/spacemeshos/go-netstate/replica"
	"github.com/spacemeshos/go-netstate/session"
	"github.com/spacemeshos/go-netstate/transport"
)

const hostPeer transport.Peer = "host"

type peer struct {
	session *session.Session
	units   map[replica.ObjectID]*unit
}

// sim runs one host and cfg.Sim.Clients clients over an in-memory hub.
type sim struct {
	logger *zap.Logger
	clock  clockwork.Clock
	cfg    config.Config
	hub    *transport.Hub
	rng    *rand.Rand

	host    *peer
	clients []*peer
}

type loggers struct {
	app, session, replica, transport, dispatch *zap.Logger
}

func newSim(cfg config.Config, lg loggers, clock clockwork.Clock) (*sim, error) {
	hubOpts := []transport.HubOpt{transport.WithLogger(lg.transport)}
	if cfg.Sim.Shuffle {
		hubOpts = append(hubOpts, transport.WithShuffle(cfg.Sim.Seed))
	}
	if cfg.Sim.Duplicates > 0 {
		hubOpts = append(hubOpts, transport.WithDuplicates(cfg.Sim.Duplicates))
	}
	mt := mt19937.New()
	mt.Seed(int64(cfg.Sim.Seed))
	s := &sim{
		logger: lg.app,
		clock:  clock,
		cfg:    cfg,
		hub:    transport.NewHub(hubOpts...),
		rng:    rand.New(mt),
	}

	join := func(name transport.Peer, role session.Role) (*peer, error) {
		ep, err := s.hub.Join(name)
		if err != nil {
			return nil, err
		}
		table, err := newTable(dispatch.WithLogger(lg.dispatch))
		if err != nil {
			return nil, fmt.Errorf("dispatch table: %w", err)
		}
		scfg := cfg.Session
		scfg.Role = role
		sess, err := session.New(scfg, table, ep,
			session.WithLogger(lg.session.With(log.Peer(string(name)))),
			session.WithReplicaLogger(lg.replica.With(log.Peer(string(name)))),
			session.WithClock(clock),
			session.WithSchema(schema...),
		)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", name, err)
		}
		return &peer{session: sess, units: make(map[replica.ObjectID]*unit)}, nil
	}

	var err error
	if s.host, err = join(hostPeer, session.Host); err != nil {
		return nil, err
	}
	for i := range cfg.Sim.Clients {
		c, err := join(transport.Peer(fmt.Sprintf("client-%d", i)), session.Client)
		if err != nil {
			return nil, err
		}
		s.clients = append(s.clients, c)
	}
	return s, nil
}

// syncSettings rotates objects through the sync timings.
func (s *sim) syncSettings(id replica.ObjectID) replica.SyncSettings {
	if s.cfg.Sim.SyncInterval <= 0 {
		return replica.SyncSettings{}
	}
	return replica.SyncSettings{
		Interval: s.cfg.Sim.SyncInterval,
		Timing:   replica.SyncTiming(uint32(id) % 3),
	}
}

// spawn creates an object on the host and its mirrors on every client.
func (s *sim) spawn(id replica.ObjectID) error {
	for _, c := range s.clients {
		u := newUnit(c.session.Table())
		if err := c.session.Spawn(u.object(id, replica.SyncSettings{})); err != nil {
			return err
		}
		c.units[id] = u
	}
	u := newUnit(s.host.session.Table())
	if err := u.name.Set(fmt.Sprintf("unit-%d", id)); err != nil {
		return err
	}
	if err := s.host.session.Spawn(u.object(id, s.syncSettings(id))); err != nil {
		return err
	}
	s.host.units[id] = u
	return nil
}

func (s *sim) connect(ctx context.Context) error {
	for _, c := range s.clients {
		if err := c.session.Connect(ctx, hostPeer); err != nil {
			return err
		}
	}
	if err := s.hub.Flush(ctx); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if n := len(s.host.session.Peers()); n != len(s.clients) {
		return fmt.Errorf("handshake: %d of %d clients connected", n, len(s.clients))
	}
	return nil
}

// step mutates every object, sends the changes and delivers them.
func (s *sim) step(ctx context.Context) error {
	for _, u := range s.host.units {
		for range s.cfg.Sim.Mutations {
			if err := u.mutate(s.rng); err != nil {
				return fmt.Errorf("mutate: %w", err)
			}
		}
	}
	if err := s.host.session.Tick(ctx); err != nil {
		return err
	}
	return s.hub.Flush(ctx)
}

// run drives the host on a ticker while clients run their own loops.
func (s *sim) run(ctx context.Context) error {
	for id := range s.cfg.Sim.Objects {
		if err := s.spawn(replica.ObjectID(id + 1)); err != nil {
			return err
		}
	}
	if err := s.connect(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	for _, c := range s.clients {
		eg.Go(func() error {
			return c.session.Run(ctx)
		})
	}
	eg.Go(func() error {
		defer cancel()
		ticker := s.clock.NewTicker(s.cfg.Session.TickInterval)
		defer ticker.Stop()
		for tick := 1; s.cfg.Sim.Ticks == 0 || tick <= s.cfg.Sim.Ticks; tick++ {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.Chan():
			}
			// a tick is delivered completely even when interrupted
			if err := s.step(context.WithoutCancel(ctx)); err != nil {
				return fmt.Errorf("tick %d: %w", tick, err)
			}
			if tick%100 == 0 {
				s.logger.Info("progress", zap.Int("tick", tick), zap.Int("objects", len(s.host.units)))
			}
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := s.settle(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	return s.verify()
}

// settle sends the changes held back by sync intervals and delivers them.
func (s *sim) settle(ctx context.Context) error {
	if err := s.host.session.Flush(ctx); err != nil {
		return err
	}
	return s.hub.Flush(ctx)
}

type unitState struct {
	X, Y    float32
	Health  int32
	Facing  bitio.Quaternion
	Gold    uint64
	Name    string
	Loadout Loadout
	Tags    []string
	Path    []uint64
	Stash   map[string]uint16
	Trail   []uint64
}

func (u *unit) state() unitState {
	return unitState{
		X:       u.x.Get(),
		Y:       u.y.Get(),
		Health:  u.health.Get(),
		Facing:  u.facing.Get(),
		Gold:    u.gold.Get(),
		Name:    u.name.Get(),
		Loadout: u.loadout.Get(),
		Tags:    u.tags.Items(),
		Path:    u.path.Items(),
		Stash:   u.stash.Snapshot(),
		Trail:   u.trail.Items(),
	}
}

// verify compares every client mirror with the host.
func (s *sim) verify() error {
	mismatches := 0
	for i, c := range s.clients {
		for id, u := range s.host.units {
			diff := cmp.Diff(u.state(), c.units[id].state(),
				cmpopts.EquateEmpty(),
				// rotations are re-normalized on every decode
				cmpopts.EquateApprox(0, 5e-3),
			)
			if diff != "" {
				mismatches++
				s.logger.Error("mirror differs from host",
					zap.Int("client", i),
					log.ObjectID(uint32(id)),
					zap.String("diff", diff),
				)
			}
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%d mirrors differ from the host", mismatches)
	}
	s.logger.Info("all mirrors match the host",
		zap.Int("clients", len(s.clients)),
		zap.Int("objects", len(s.host.units)),
	)
	return nil
}
