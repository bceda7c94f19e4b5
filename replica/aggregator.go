package replica

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/log"
	"github.com/spacemeshos/go-netstate/transport"
)

type hostObject struct {
	obj *Object
	seq uint64
	// next is the earliest time changes are sent, see SyncSettings
	next time.Time
	// observers maps a peer to whether it received full state
	observers map[transport.Peer]bool
}

type outgoing struct {
	to   transport.Peer
	id   ObjectID
	seq  uint64
	data []byte
	full bool
	n    int
}

// Aggregator collects field deltas of tracked objects on the host and sends
// them to observers, one payload per object per tick.
type Aggregator struct {
	logger *zap.Logger
	clock  clockwork.Clock
	cfg    Config
	sender Sender

	mu      sync.Mutex
	objects map[ObjectID]*hostObject
	scratch *bitio.Writer
}

func NewAggregator(cfg Config, sender Sender, opts ...Opt) *Aggregator {
	o := newOptions(opts)
	return &Aggregator{
		logger:  o.logger,
		clock:   o.clock,
		cfg:     cfg,
		sender:  sender,
		objects: make(map[ObjectID]*hostObject),
		scratch: bitio.NewWriter(256),
	}
}

// Track starts aggregating changes of obj.
func (a *Aggregator) Track(obj *Object) error {
	if obj.Len() > a.cfg.MaxEntries {
		return fmt.Errorf("%w: object %d has %d fields, limit %d",
			ErrTooLarge, obj.ID(), obj.Len(), a.cfg.MaxEntries)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[obj.ID()]; ok {
		return fmt.Errorf("%w: %d already tracked", ErrIDReused, obj.ID())
	}
	a.objects[obj.ID()] = &hostObject{
		obj:       obj,
		observers: make(map[transport.Peer]bool),
	}
	return nil
}

// Untrack drops the object and all of its observer state.
func (a *Aggregator) Untrack(id ObjectID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, id)
}

// Spawned implements Listener.
func (a *Aggregator) Spawned(obj *Object) {
	if err := a.Track(obj); err != nil {
		a.logger.Error("failed to track spawned object", log.ObjectID(uint32(obj.ID())), zap.Error(err))
	}
}

// Despawned implements Listener.
func (a *Aggregator) Despawned(id ObjectID) {
	a.Untrack(id)
}

// AddObserver subscribes peer to the object. The peer receives full state on
// the next drain and deltas afterwards.
func (a *Aggregator) AddObserver(id ObjectID, peer transport.Peer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ho, ok := a.objects[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	if _, ok := ho.observers[peer]; !ok {
		ho.observers[peer] = false
	}
	return nil
}

func (a *Aggregator) RemoveObserver(id ObjectID, peer transport.Peer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ho, ok := a.objects[id]; ok {
		delete(ho.observers, peer)
	}
}

// Observers returns the observers of id in sorted order.
func (a *Aggregator) Observers(id ObjectID) []transport.Peer {
	a.mu.Lock()
	defer a.mu.Unlock()
	ho, ok := a.objects[id]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(ho.observers))
}

// Tick drains every tracked object in id order. An encoding error aborts
// only the object it occurred in; all errors are returned joined.
func (a *Aggregator) Tick(ctx context.Context) error {
	return a.drainAll(ctx, false)
}

// Flush is Tick ignoring sync intervals.
func (a *Aggregator) Flush(ctx context.Context) error {
	return a.drainAll(ctx, true)
}

func (a *Aggregator) drainAll(ctx context.Context, force bool) error {
	a.mu.Lock()
	ids := slices.Sorted(maps.Keys(a.objects))
	a.mu.Unlock()
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.drain(ctx, id, force); err != nil && !errors.Is(err, ErrUnknownObject) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Drain consumes pending changes of one object. Caught up observers get a
// delta payload if anything changed. New observers get a full state payload
// with a later seq and are caught up from then on. Changes are kept for a
// later drain while the object's sync interval has not elapsed, unless a new
// observer is waiting.
func (a *Aggregator) Drain(ctx context.Context, id ObjectID) error {
	return a.drain(ctx, id, false)
}

func (a *Aggregator) drain(ctx context.Context, id ObjectID, force bool) error {
	out, err := a.collect(id, force)
	if err != nil {
		return err
	}
	for _, msg := range out {
		a.send(ctx, msg)
	}
	return nil
}

func (a *Aggregator) collect(id ObjectID, force bool) ([]outgoing, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ho, ok := a.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}

	var caughtUp, fresh []transport.Peer
	for _, peer := range slices.Sorted(maps.Keys(ho.observers)) {
		if ho.observers[peer] {
			caughtUp = append(caughtUp, peer)
		} else {
			fresh = append(fresh, peer)
		}
	}
	now := a.clock.Now()
	settings := ho.obj.Sync()
	if !force && len(fresh) == 0 && !settings.due(ho.next, now) {
		deferredDrains.Inc()
		return nil, nil
	}

	entries, err := a.entries(ho.obj, Field.ConsumeDelta)
	if err != nil {
		return nil, fmt.Errorf("consume object %d: %w", id, err)
	}

	var out []outgoing
	if len(entries) > 0 && len(caughtUp) > 0 {
		ho.seq++
		data, err := (&Payload{Object: id, Seq: ho.seq, Entries: entries}).Encode(a.cfg)
		if err != nil {
			return nil, err
		}
		for _, peer := range caughtUp {
			out = append(out, outgoing{to: peer, id: id, seq: ho.seq, data: data, n: len(entries)})
		}
	}
	if len(fresh) > 0 {
		full, err := a.entries(ho.obj, func(f Field, w *bitio.Writer) (bool, error) {
			return true, f.WriteFull(w)
		})
		if err != nil {
			return nil, fmt.Errorf("full state of object %d: %w", id, err)
		}
		ho.seq++
		data, err := (&Payload{Object: id, Seq: ho.seq, Entries: full}).Encode(a.cfg)
		if err != nil {
			return nil, err
		}
		for _, peer := range fresh {
			ho.observers[peer] = true
			out = append(out, outgoing{to: peer, id: id, seq: ho.seq, data: data, full: true, n: len(full)})
		}
	}
	if len(out) > 0 {
		ho.next = settings.advance(ho.next, now)
	}
	return out, nil
}

// entries must be called with mu held.
func (a *Aggregator) entries(obj *Object, write func(Field, *bitio.Writer) (bool, error)) ([]Entry, error) {
	var entries []Entry
	for _, index := range obj.order {
		a.scratch.Reset()
		wrote, err := write(obj.fields[index], a.scratch)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", index, err)
		}
		if wrote {
			entries = append(entries, Entry{Field: index, Delta: a.scratch.Copy()})
		}
	}
	return entries, nil
}

func (a *Aggregator) send(ctx context.Context, msg outgoing) {
	if err := a.sender.Send(ctx, msg.to, msg.data); err != nil {
		sendFailures.Inc()
		a.logger.Warn("send failed, observer will get full state",
			log.ObjectID(uint32(msg.id)),
			log.SyncSeq(msg.seq),
			log.Peer(string(msg.to)),
			zap.Bool("full", msg.full),
			zap.Error(err),
		)
		// consumed journals are gone, the observer needs full state again
		a.mu.Lock()
		if ho, ok := a.objects[msg.id]; ok {
			if _, ok := ho.observers[msg.to]; ok {
				ho.observers[msg.to] = false
			}
		}
		a.mu.Unlock()
		return
	}
	if msg.full {
		fullPayloads.Inc()
		fullBytes.Add(float64(len(msg.data)))
		fullEntries.Observe(float64(msg.n))
	} else {
		deltaPayloads.Inc()
		deltaBytes.Add(float64(len(msg.data)))
		deltaEntries.Observe(float64(msg.n))
	}
}
