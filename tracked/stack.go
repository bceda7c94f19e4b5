package tracked

import (
	"fmt"
	"slices"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

// StackHooks are called after a stack changes. OnChange follows every other
// callback and is the only one called for a reset.
type StackHooks[T any] struct {
	OnPush   func(item T)
	OnPop    func(item T)
	OnClear  func()
	OnChange func()
}

func (h StackHooks[T]) fire(op Op[T]) {
	switch op.Kind {
	case OpAdd:
		if h.OnPush != nil {
			h.OnPush(op.Item)
		}
	case OpPop:
		if h.OnPop != nil {
			h.OnPop(op.Item)
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

// Stack is a replicated LIFO stack. Pushes are journaled as adds.
type Stack[T comparable] struct {
	journal[Op[T]]
	entry dispatch.Entry[T]
	// items are ordered bottom to top
	items []T
	hooks []StackHooks[T]
}

func NewStack[T comparable](entry dispatch.Entry[T], opts ...Opt) *Stack[T] {
	s := &Stack[T]{entry: entry}
	s.init(opts)
	return s
}

func (s *Stack[T]) Subscribe(h StackHooks[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

func (s *Stack[T]) Push(item T) error {
	if err := s.entry.Check(item); err != nil {
		return fmt.Errorf("stack push: %w", err)
	}
	_, err := s.mutate(Op[T]{Kind: OpAdd, Item: item})
	return err
}

// Pop removes and returns the top item.
func (s *Stack[T]) Pop() (T, error) {
	return s.mutate(Op[T]{Kind: OpPop})
}

func (s *Stack[T]) Clear() error {
	_, err := s.mutate(Op[T]{Kind: OpClear})
	return err
}

func (s *Stack[T]) mutate(op Op[T]) (T, error) {
	s.mu.Lock()
	if err := s.writable(); err != nil {
		s.mu.Unlock()
		var zero T
		return zero, err
	}
	ev, changed, err := applyStackOp(&s.items, op)
	if err != nil || !changed {
		s.mu.Unlock()
		return ev.Item, err
	}
	s.record(Op[T]{Kind: op.Kind, Item: op.Item})
	hooks := s.hooks
	s.mu.Unlock()
	for _, h := range hooks {
		h.fire(ev)
	}
	return ev.Item, nil
}

// applyStackOp returns op with Item set to the popped item for pops.
func applyStackOp[T any](items *[]T, op Op[T]) (Op[T], bool, error) {
	switch op.Kind {
	case OpAdd:
		*items = append(*items, op.Item)
	case OpPop:
		n := len(*items)
		if n == 0 {
			return op, false, ErrEmpty
		}
		op.Item = (*items)[n-1]
		clear((*items)[n-1:])
		*items = (*items)[:n-1]
	case OpClear:
		if len(*items) == 0 {
			return op, false, nil
		}
		clear(*items)
		*items = (*items)[:0]
	default:
		return op, false, fmt.Errorf("%w: %s on stack", ErrMalformed, op.Kind)
	}
	return op, true, nil
}

// Peek returns the top item.
func (s *Stack[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns the items from bottom to top, nil if the stack is empty.
func (s *Stack[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil
	}
	return slices.Clone(s.items)
}

func (s *Stack[T]) writeItems(w *bitio.Writer) error {
	w.WriteVarUint(uint64(len(s.items)))
	for _, item := range s.items {
		if err := s.entry.Write(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stack[T]) writeOp(w *bitio.Writer, op Op[T]) error {
	if err := writeTag(w, op.Kind); err != nil {
		return err
	}
	if op.Kind == OpAdd {
		return s.entry.Write(w, op.Item)
	}
	return nil
}

func (s *Stack[T]) readOp(r *bitio.Reader) (Op[T], error) {
	kind, err := readTag(r)
	if err != nil {
		return Op[T]{}, err
	}
	switch kind {
	case OpPop, OpClear:
		return Op[T]{Kind: kind}, nil
	case OpAdd:
		item, err := s.entry.Read(r)
		if err != nil {
			return Op[T]{}, err
		}
		return Op[T]{Kind: kind, Item: item}, nil
	}
	return Op[T]{}, fmt.Errorf("%w: %s on stack", ErrMalformed, kind)
}

func (s *Stack[T]) ConsumeDelta(w *bitio.Writer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consume(w, s.writeItems, s.writeOp)
}

func (s *Stack[T]) WriteFull(w *bitio.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full(w, s.writeItems)
}

// ApplyDelta applies a delta from a remote stack and makes this stack
// read-only. A pop of an empty stack fails the whole delta.
func (s *Stack[T]) ApplyDelta(r *bitio.Reader) error {
	commit, err := s.PrepareDelta(r)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// PrepareDelta decodes a delta and replays it on a copy of the items. The
// stack is changed only by the returned commit.
func (s *Stack[T]) PrepareDelta(r *bitio.Reader) (func(), error) {
	reset, items, ops, err := readDelta(r, s.limit, s.entry.Read, s.readOp)
	if err != nil {
		return nil, fmt.Errorf("stack delta: %w", err)
	}
	var events []Op[T]
	if !reset {
		items = s.Items()
		events = make([]Op[T], 0, len(ops))
		for i, op := range ops {
			ev, _, err := applyStackOp(&items, op)
			if err != nil {
				return nil, fmt.Errorf("%w: stack delta op %d: %w", ErrMalformed, i, err)
			}
			events = append(events, ev)
		}
	}
	return func() {
		s.mu.Lock()
		s.readOnly = true
		s.items = items
		s.version += uint64(max(len(ops), 1))
		hooks := s.hooks
		s.mu.Unlock()

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
