package tracked

import (
	"fmt"
	"slices"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

// MapOp is a journaled map operation.
type MapOp[K, V any] struct {
	Kind  OpKind
	Key   K
	Value V
}

// MapHooks are called after a map changes. OnChange follows every other
// callback and is the only one called for a reset.
type MapHooks[K, V any] struct {
	OnAdd    func(key K, value V)
	OnSet    func(key K, prev, next V)
	OnRemove func(key K, value V)
	OnClear  func()
	OnChange func()
}

type mapEvent[K, V any] struct {
	op      MapOp[K, V]
	prev    V
	existed bool
}

func (h MapHooks[K, V]) fire(ev mapEvent[K, V]) {
	switch ev.op.Kind {
	case OpSet:
		if ev.existed {
			if h.OnSet != nil {
				h.OnSet(ev.op.Key, ev.prev, ev.op.Value)
			}
		} else if h.OnAdd != nil {
			h.OnAdd(ev.op.Key, ev.op.Value)
		}
	case OpRemove:
		if h.OnRemove != nil {
			h.OnRemove(ev.op.Key, ev.prev)
		}
	case OpClear:
		if h.OnClear != nil {
			h.OnClear()
		}
	}
	if h.OnChange != nil {
		h.OnChange()
	}
}

type pair[K, V any] struct {
	key   K
	value V
}

// mapState keeps keys in insertion order next to the lookup table.
type mapState[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func (m *mapState[K, V]) clone() mapState[K, V] {
	values := make(map[K]V, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	return mapState[K, V]{keys: slices.Clone(m.keys), values: values}
}

func applyMapOp[K, V comparable](m *mapState[K, V], op MapOp[K, V]) (mapEvent[K, V], bool) {
	ev := mapEvent[K, V]{op: op}
	switch op.Kind {
	case OpSet:
		ev.prev, ev.existed = m.values[op.Key]
		if ev.existed && ev.prev == op.Value {
			return ev, false
		}
		if !ev.existed {
			m.keys = append(m.keys, op.Key)
		}
		m.values[op.Key] = op.Value
	case OpRemove:
		ev.prev, ev.existed = m.values[op.Key]
		if !ev.existed {
			return ev, false
		}
		delete(m.values, op.Key)
		m.keys = slices.DeleteFunc(m.keys, func(k K) bool { return k == op.Key })
	case OpClear:
		if len(m.keys) == 0 {
			return ev, false
		}
		m.keys = m.keys[:0]
		clear(m.values)
	default:
		panic("BUG: unexpected map op " + op.Kind.String())
	}
	return ev, true
}

// Map is a replicated key/value map.
type Map[K, V comparable] struct {
	journal[MapOp[K, V]]
	keyEntry   dispatch.Entry[K]
	valueEntry dispatch.Entry[V]
	state      mapState[K, V]
	hooks      []MapHooks[K, V]
}

func NewMap[K, V comparable](keys dispatch.Entry[K], values dispatch.Entry[V], opts ...Opt) *Map[K, V] {
	m := &Map[K, V]{
		keyEntry:   keys,
		valueEntry: values,
		state:      mapState[K, V]{values: make(map[K]V)},
	}
	m.init(opts)
	return m
}

func (m *Map[K, V]) Subscribe(h MapHooks[K, V]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Set adds or replaces the value under key.
func (m *Map[K, V]) Set(key K, value V) error {
	if err := m.keyEntry.Check(key); err != nil {
		return fmt.Errorf("map key: %w", err)
	}
	if err := m.valueEntry.Check(value); err != nil {
		return fmt.Errorf("map value: %w", err)
	}
	return m.mutate(MapOp[K, V]{Kind: OpSet, Key: key, Value: value})
}

func (m *Map[K, V]) Remove(key K) error {
	return m.mutate(MapOp[K, V]{Kind: OpRemove, Key: key})
}

func (m *Map[K, V]) Clear() error {
	return m.mutate(MapOp[K, V]{Kind: OpClear})
}

func (m *Map[K, V]) mutate(op MapOp[K, V]) error {
	m.mu.Lock()
	if err := m.writable(); err != nil {
		m.mu.Unlock()
		return err
	}
	ev, changed := applyMapOp(&m.state, op)
	if !changed {
		m.mu.Unlock()
		return nil
	}
	m.record(op)
	hooks := m.hooks
	m.mu.Unlock()
	for _, h := range hooks {
		h.fire(ev)
	}
	return nil
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state.values[key]
	return v, ok
}

func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.keys)
}

// Keys returns keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.keys)
}

// Snapshot returns a copy of the map contents.
func (m *Map[K, V]) Snapshot() map[K]V {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone().values
}

func (m *Map[K, V]) writeItems(w *bitio.Writer) error {
	w.WriteVarUint(uint64(len(m.state.keys)))
	for _, k := range m.state.keys {
		if err := m.writePair(w, k, m.state.values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Map[K, V]) writePair(w *bitio.Writer, k K, v V) error {
	if err := m.keyEntry.Write(w, k); err != nil {
		return err
	}
	return m.valueEntry.Write(w, v)
}

func (m *Map[K, V]) readPair(r *bitio.Reader) (pair[K, V], error) {
	k, err := m.keyEntry.Read(r)
	if err != nil {
		return pair[K, V]{}, err
	}
	v, err := m.valueEntry.Read(r)
	if err != nil {
		return pair[K, V]{}, err
	}
	return pair[K, V]{key: k, value: v}, nil
}

func (m *Map[K, V]) writeOp(w *bitio.Writer, op MapOp[K, V]) error {
	if err := writeTag(w, op.Kind); err != nil {
		return err
	}
	switch op.Kind {
	case OpSet:
		return m.writePair(w, op.Key, op.Value)
	case OpRemove:
		return m.keyEntry.Write(w, op.Key)
	}
	return nil
}

func (m *Map[K, V]) readOp(r *bitio.Reader) (MapOp[K, V], error) {
	kind, err := readTag(r)
	if err != nil {
		return MapOp[K, V]{}, err
	}
	op := MapOp[K, V]{Kind: kind}
	switch kind {
	case OpClear:
	case OpSet:
		p, err := m.readPair(r)
		if err != nil {
			return MapOp[K, V]{}, err
		}
		op.Key, op.Value = p.key, p.value
	case OpRemove:
		if op.Key, err = m.keyEntry.Read(r); err != nil {
			return MapOp[K, V]{}, err
		}
	default:
		return MapOp[K, V]{}, fmt.Errorf("%w: %s on map", ErrMalformed, kind)
	}
	return op, nil
}

func (m *Map[K, V]) ConsumeDelta(w *bitio.Writer) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consume(w, m.writeItems, m.writeOp)
}

func (m *Map[K, V]) WriteFull(w *bitio.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.full(w, m.writeItems)
}

// ApplyDelta applies a delta from a remote map and makes this map read-only.
func (m *Map[K, V]) ApplyDelta(r *bitio.Reader) error {
	commit, err := m.PrepareDelta(r)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// PrepareDelta decodes a delta and replays it on a copy of the map. The map
// is changed only by the returned commit.
func (m *Map[K, V]) PrepareDelta(r *bitio.Reader) (func(), error) {
	reset, pairs, ops, err := readDelta(r, m.limit, m.readPair, m.readOp)
	if err != nil {
		return nil, fmt.Errorf("map delta: %w", err)
	}
	var (
		next   mapState[K, V]
		events []mapEvent[K, V]
	)
	if reset {
		next = mapState[K, V]{keys: make([]K, 0, len(pairs)), values: make(map[K]V, len(pairs))}
		for _, p := range pairs {
			if _, ok := next.values[p.key]; ok {
				return nil, fmt.Errorf("%w: duplicate key in map reset", ErrMalformed)
			}
			next.keys = append(next.keys, p.key)
			next.values[p.key] = p.value
		}
	} else {
		m.mu.Lock()
		next = m.state.clone()
		m.mu.Unlock()
		for i, op := range ops {
			ev, changed := applyMapOp(&next, op)
			if !changed && op.Kind == OpRemove {
				return nil, fmt.Errorf("%w: map delta op %d: remove of missing key", ErrMalformed, i)
			}
			events = append(events, ev)
		}
	}
	return func() {
		m.mu.Lock()
		m.readOnly = true
		m.state = next
		m.version += uint64(max(len(ops), 1))
		hooks := m.hooks
		m.mu.Unlock()

		for _, h := range hooks {
			if reset {
				if h.OnChange != nil {
					h.OnChange()
				}
				continue
			}
			for _, ev := range events {
				h.fire(ev)
			}
		}
	}, nil
}
