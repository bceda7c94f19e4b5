package replica

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/log"
	"github.com/spacemeshos/go-netstate/transport"
)

// Applier decodes payloads on a receiver and applies them to spawned objects
// in increasing seq order. Payloads for objects that are not spawned yet are
// buffered for a grace window; payloads for despawned objects are dropped.
type Applier struct {
	logger  *zap.Logger
	clock   clockwork.Clock
	cfg     Config
	objects Objects

	mu          sync.Mutex
	lastApplied map[ObjectID]uint64
	pending     *pendingBuffer
	tombstones  *lru.Cache[ObjectID, struct{}]
}

func NewApplier(cfg Config, objects Objects, opts ...Opt) *Applier {
	o := newOptions(opts)
	tombstones, err := lru.New[ObjectID, struct{}](cfg.TombstoneLimit)
	if err != nil {
		panic("BUG: tombstone limit must be positive: " + err.Error())
	}
	return &Applier{
		logger:      o.logger,
		clock:       o.clock,
		cfg:         cfg,
		objects:     objects,
		lastApplied: make(map[ObjectID]uint64),
		pending:     newPendingBuffer(cfg),
		tombstones:  tombstones,
	}
}

// HandlePayload is a transport.Handler. Malformed payloads are dropped and
// reported; stale, duplicate and despawned ones are dropped silently.
func (a *Applier) HandlePayload(ctx context.Context, from transport.Peer, data []byte) error {
	p, err := DecodePayload(data, a.cfg)
	if err != nil {
		malformedPayloads.Inc()
		a.logger.Debug("malformed payload", log.Peer(string(from)), zap.Error(err))
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tombstones.Contains(p.Object) {
		despawnedPayloads.Inc()
		return nil
	}
	obj, ok := a.objects.Get(p.Object)
	if !ok {
		a.pending.add(p, a.clock.Now())
		bufferedPayloads.Inc()
		a.logger.Debug("buffered payload for unknown object",
			log.ObjectID(uint32(p.Object)),
			log.SyncSeq(p.Seq),
		)
		return nil
	}
	if err := a.apply(obj, p); err != nil {
		malformedPayloads.Inc()
		a.logger.Debug("payload does not match object",
			log.ObjectID(uint32(p.Object)),
			log.SyncSeq(p.Seq),
			log.Peer(string(from)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// apply must be called with mu held.
func (a *Applier) apply(obj *Object, p *Payload) error {
	if last, ok := a.lastApplied[p.Object]; ok && p.Seq <= last {
		stalePayloads.Inc()
		a.logger.Debug("stale payload",
			log.ObjectID(uint32(p.Object)),
			log.SyncSeq(p.Seq),
			zap.Uint64("last", last),
		)
		return nil
	}
	fields := make([]Field, len(p.Entries))
	for i, e := range p.Entries {
		f, ok := obj.Field(e.Field)
		if !ok {
			a.logger.Debug("payload references unknown field",
				log.ObjectID(uint32(p.Object)),
				log.FieldIndex(uint32(e.Field)),
			)
			return fmt.Errorf("%w: object %d has no field %d", ErrMalformed, p.Object, e.Field)
		}
		fields[i] = f
	}
	commits := make([]func(), len(p.Entries))
	for i, e := range p.Entries {
		r := bitio.NewReader(e.Delta)
		r.SetMaxBlob(a.cfg.MaxDeltaSize)
		commit, err := fields[i].PrepareDelta(r)
		if err != nil {
			return fmt.Errorf("%w: object %d field %d: %w", ErrMalformed, p.Object, e.Field, err)
		}
		commits[i] = commit
	}
	for _, commit := range commits {
		commit()
	}
	a.lastApplied[p.Object] = p.Seq
	appliedPayloads.Inc()
	return nil
}

// Spawned implements Listener. Buffered payloads of the object are applied
// in seq order; those older than the grace window are dropped.
func (a *Applier) Spawned(obj *Object) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.pending.take(obj.ID(), a.clock.Now()) {
		replayedPayloads.Inc()
		if err := a.apply(obj, p); err != nil {
			malformedPayloads.Inc()
			a.logger.Debug("buffered payload does not match object",
				log.ObjectID(uint32(p.Object)),
				log.SyncSeq(p.Seq),
				zap.Error(err),
			)
		}
	}
}

// Despawned implements Listener. Later payloads for id are dropped.
func (a *Applier) Despawned(id ObjectID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tombstones.Add(id, struct{}{})
	delete(a.lastApplied, id)
	if n := a.pending.drop(id); n > 0 {
		despawnedPayloads.Add(float64(n))
	}
}

// Sweep drops buffered payloads older than the grace window and returns how
// many were dropped.
func (a *Applier) Sweep() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending.sweep(a.clock.Now())
}

// LastApplied returns the seq of the last payload applied to id.
func (a *Applier) LastApplied(id ObjectID) (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	seq, ok := a.lastApplied[id]
	return seq, ok
}

// Pending returns the number of payloads buffered for id.
func (a *Applier) Pending(id ObjectID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending.len(id)
}
