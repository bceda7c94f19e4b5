package tracked

import (
	"fmt"
	"slices"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

// SetHooks are called after a set changes. OnChange follows every other
// callback and is the only one called for a reset.
type SetHooks[T any] struct {
	OnAdd    func(item T)
	OnRemove func(item T)
	OnClear  func()
	OnChange func()
}

func (h SetHooks[T]) fire(op Op[T]) {
	switch op.Kind {
	case OpAdd:
		if h.OnAdd != nil {
			h.OnAdd(op.Item)
		}
	case OpRemove:
		if h.OnRemove != nil {
			h.OnRemove(op.Item)
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

func (h SetHooks[T]) reset() {
	if h.OnChange != nil {
		h.OnChange()
	}
}

// Set is a replicated set. Items keep insertion order so that resets are
// deterministic.
type Set[T comparable] struct {
	journal[Op[T]]
	entry dispatch.Entry[T]
	items []T
	index map[T]int
	hooks []SetHooks[T]
}

func NewSet[T comparable](entry dispatch.Entry[T], opts ...Opt) *Set[T] {
	s := &Set[T]{
		entry: entry,
		index: make(map[T]int),
	}
	s.init(opts)
	return s
}

func (s *Set[T]) Subscribe(h SetHooks[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

func (s *Set[T]) Add(item T) error {
	if err := s.entry.Check(item); err != nil {
		return fmt.Errorf("set add: %w", err)
	}
	return s.mutate(Op[T]{Kind: OpAdd, Item: item})
}

func (s *Set[T]) Remove(item T) error {
	return s.mutate(Op[T]{Kind: OpRemove, Item: item})
}

func (s *Set[T]) Clear() error {
	return s.mutate(Op[T]{Kind: OpClear})
}

func (s *Set[T]) mutate(op Op[T]) error {
	s.mu.Lock()
	if err := s.writable(); err != nil {
		s.mu.Unlock()
		return err
	}
	items, index := s.items, s.index
	changed, err := applySetOp(&items, index, op)
	if err != nil {
		panic("BUG: local set mutation failed: " + err.Error())
	}
	s.items = items
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.record(op)
	hooks := s.hooks
	s.mu.Unlock()
	for _, h := range hooks {
		h.fire(op)
	}
	return nil
}

// applySetOp reports whether op changed the set. Operations that would be
// no-ops locally are errors when replayed from a delta, see ApplyDelta.
func applySetOp[T comparable](items *[]T, index map[T]int, op Op[T]) (bool, error) {
	switch op.Kind {
	case OpAdd:
		if _, ok := index[op.Item]; ok {
			return false, nil
		}
		index[op.Item] = len(*items)
		*items = append(*items, op.Item)
	case OpRemove:
		i, ok := index[op.Item]
		if !ok {
			return false, nil
		}
		delete(index, op.Item)
		*items = slices.Delete(*items, i, i+1)
		for j := i; j < len(*items); j++ {
			index[(*items)[j]] = j
		}
	case OpClear:
		if len(*items) == 0 {
			return false, nil
		}
		*items = (*items)[:0]
		clear(index)
	default:
		return false, fmt.Errorf("%w: %s on set", ErrMalformed, op.Kind)
	}
	return true, nil
}

func (s *Set[T]) Contains(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[item]
	return ok
}

func (s *Set[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s *Set[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Set[T]) writeItems(w *bitio.Writer) error {
	w.WriteVarUint(uint64(len(s.items)))
	for _, item := range s.items {
		if err := s.entry.Write(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set[T]) writeOp(w *bitio.Writer, op Op[T]) error {
	if err := writeTag(w, op.Kind); err != nil {
		return err
	}
	if op.Kind == OpClear {
		return nil
	}
	return s.entry.Write(w, op.Item)
}

func (s *Set[T]) readOp(r *bitio.Reader) (Op[T], error) {
	kind, err := readTag(r)
	if err != nil {
		return Op[T]{}, err
	}
	switch kind {
	case OpClear:
		return Op[T]{Kind: kind}, nil
	case OpAdd, OpRemove:
		item, err := s.entry.Read(r)
		if err != nil {
			return Op[T]{}, err
		}
		return Op[T]{Kind: kind, Item: item}, nil
	}
	return Op[T]{}, fmt.Errorf("%w: %s on set", ErrMalformed, kind)
}

// ConsumeDelta writes the journal, or a reset if peers are not caught up,
// and truncates the journal.
func (s *Set[T]) ConsumeDelta(w *bitio.Writer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consume(w, s.writeItems, s.writeOp)
}

// WriteFull writes a reset for a new observer.
func (s *Set[T]) WriteFull(w *bitio.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full(w, s.writeItems)
}

// ApplyDelta applies a delta from a remote set and makes this set read-only.
// The delta is applied entirely or not at all.
func (s *Set[T]) ApplyDelta(r *bitio.Reader) error {
	commit, err := s.PrepareDelta(r)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// PrepareDelta decodes a delta and replays it on a copy of the items. The
// set is changed only by the returned commit.
func (s *Set[T]) PrepareDelta(r *bitio.Reader) (func(), error) {
	reset, items, ops, err := readDelta(r, s.limit, s.entry.Read, s.readOp)
	if err != nil {
		return nil, fmt.Errorf("set delta: %w", err)
	}
	s.mu.Lock()
	next := make([]T, 0, max(len(items), len(s.items)))
	if !reset {
		next = append(next, s.items...)
	}
	s.mu.Unlock()
	index := make(map[T]int, cap(next))
	if reset {
		for _, item := range items {
			if _, ok := index[item]; ok {
				return nil, fmt.Errorf("%w: duplicate item in set reset", ErrMalformed)
			}
			index[item] = len(next)
			next = append(next, item)
		}
	} else {
		for i, item := range next {
			index[item] = i
		}
		for i, op := range ops {
			changed, err := applySetOp(&next, index, op)
			if err == nil && !changed && op.Kind != OpClear {
				err = fmt.Errorf("%w: %s does not change the set", ErrMalformed, op.Kind)
			}
			if err != nil {
				return nil, fmt.Errorf("set delta op %d: %w", i, err)
			}
		}
	}
	return func() {
		s.mu.Lock()
		s.readOnly = true
		s.items = next
		s.index = index
		s.version += uint64(max(len(ops), 1))
		hooks := s.hooks
		s.mu.Unlock()

		for _, h := range hooks {
			if reset {
				h.reset()
				continue
			}
			for _, op := range ops {
				h.fire(op)
			}
		}
	}, nil
}
