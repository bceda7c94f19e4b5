package tracked

import (
	"fmt"
	"slices"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

// ListHooks are called after a list changes. OnChange follows every other
// callback and is the only one called for a reset.
type ListHooks[T any] struct {
	OnInsert func(index int, item T)
	OnRemove func(index int, item T)
	OnSet    func(index int, prev, next T)
	OnClear  func()
	OnChange func()
}

// listEvent carries the values an operation replaced, for hooks.
type listEvent[T any] struct {
	op   Op[T]
	prev T
}

func (h ListHooks[T]) fire(ev listEvent[T]) {
	switch ev.op.Kind {
	case OpAdd, OpInsert:
		if h.OnInsert != nil {
			h.OnInsert(ev.op.Index, ev.op.Item)
		}
	case OpRemoveAt:
		if h.OnRemove != nil {
			h.OnRemove(ev.op.Index, ev.prev)
		}
	case OpSet:
		if h.OnSet != nil {
			h.OnSet(ev.op.Index, ev.prev, ev.op.Item)
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

// List is a replicated ordered list.
type List[T comparable] struct {
	journal[Op[T]]
	entry dispatch.Entry[T]
	items []T
	hooks []ListHooks[T]
}

func NewList[T comparable](entry dispatch.Entry[T], opts ...Opt) *List[T] {
	l := &List[T]{entry: entry}
	l.init(opts)
	return l
}

func (l *List[T]) Subscribe(h ListHooks[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

// Add appends item.
func (l *List[T]) Add(item T) error {
	if err := l.entry.Check(item); err != nil {
		return fmt.Errorf("list add: %w", err)
	}
	return l.mutate(Op[T]{Kind: OpAdd, Item: item})
}

// Insert places item at index, shifting later items. index may equal Len.
func (l *List[T]) Insert(index int, item T) error {
	if err := l.entry.Check(item); err != nil {
		return fmt.Errorf("list insert: %w", err)
	}
	return l.mutate(Op[T]{Kind: OpInsert, Index: index, Item: item})
}

// Set replaces the item at index.
func (l *List[T]) Set(index int, item T) error {
	if err := l.entry.Check(item); err != nil {
		return fmt.Errorf("list set: %w", err)
	}
	return l.mutate(Op[T]{Kind: OpSet, Index: index, Item: item})
}

func (l *List[T]) RemoveAt(index int) error {
	return l.mutate(Op[T]{Kind: OpRemoveAt, Index: index})
}

// Remove deletes the first occurrence of item. It is journaled as RemoveAt.
func (l *List[T]) Remove(item T) error {
	l.mu.Lock()
	i := slices.Index(l.items, item)
	l.mu.Unlock()
	if i < 0 {
		return nil
	}
	return l.mutate(Op[T]{Kind: OpRemoveAt, Index: i})
}

func (l *List[T]) Clear() error {
	return l.mutate(Op[T]{Kind: OpClear})
}

func (l *List[T]) mutate(op Op[T]) error {
	l.mu.Lock()
	if err := l.writable(); err != nil {
		l.mu.Unlock()
		return err
	}
	items := l.items
	ev, changed, err := applyListOp(&items, op)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	l.items = items
	if !changed {
		l.mu.Unlock()
		return nil
	}
	l.record(ev.op)
	hooks := l.hooks
	l.mu.Unlock()
	for _, h := range hooks {
		h.fire(ev)
	}
	return nil
}

func applyListOp[T comparable](items *[]T, op Op[T]) (listEvent[T], bool, error) {
	ev := listEvent[T]{op: op}
	n := len(*items)
	switch op.Kind {
	case OpAdd:
		ev.op.Index = n
		*items = append(*items, op.Item)
	case OpInsert:
		if op.Index < 0 || op.Index > n {
			return ev, false, fmt.Errorf("%w: insert at %d, len %d", ErrIndexOutOfRange, op.Index, n)
		}
		*items = slices.Insert(*items, op.Index, op.Item)
	case OpSet:
		if op.Index < 0 || op.Index >= n {
			return ev, false, fmt.Errorf("%w: set at %d, len %d", ErrIndexOutOfRange, op.Index, n)
		}
		ev.prev = (*items)[op.Index]
		if ev.prev == op.Item {
			return ev, false, nil
		}
		(*items)[op.Index] = op.Item
	case OpRemoveAt:
		if op.Index < 0 || op.Index >= n {
			return ev, false, fmt.Errorf("%w: remove at %d, len %d", ErrIndexOutOfRange, op.Index, n)
		}
		ev.prev = (*items)[op.Index]
		*items = slices.Delete(*items, op.Index, op.Index+1)
	case OpClear:
		if n == 0 {
			return ev, false, nil
		}
		*items = (*items)[:0]
	default:
		return ev, false, fmt.Errorf("%w: %s on list", ErrMalformed, op.Kind)
	}
	return ev, true, nil
}

// Get returns the item at index.
func (l *List[T]) Get(index int) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.items) {
		var zero T
		return zero, false
	}
	return l.items[index], true
}

func (l *List[T]) IndexOf(item T) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Index(l.items, item)
}

func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy of the items, nil if the list is empty.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) == 0 {
		return nil
	}
	return slices.Clone(l.items)
}

func (l *List[T]) writeItems(w *bitio.Writer) error {
	w.WriteVarUint(uint64(len(l.items)))
	for _, item := range l.items {
		if err := l.entry.Write(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (l *List[T]) writeOp(w *bitio.Writer, op Op[T]) error {
	if err := writeTag(w, op.Kind); err != nil {
		return err
	}
	switch op.Kind {
	case OpInsert, OpSet, OpRemoveAt:
		w.WriteVarUint(uint64(op.Index))
	}
	switch op.Kind {
	case OpAdd, OpInsert, OpSet:
		return l.entry.Write(w, op.Item)
	}
	return nil
}

func (l *List[T]) readOp(r *bitio.Reader) (Op[T], error) {
	kind, err := readTag(r)
	if err != nil {
		return Op[T]{}, err
	}
	op := Op[T]{Kind: kind}
	switch kind {
	case OpAdd, OpClear:
	case OpInsert, OpSet, OpRemoveAt:
		if op.Index, err = readIndex(r, l.limit); err != nil {
			return Op[T]{}, err
		}
	default:
		return Op[T]{}, fmt.Errorf("%w: %s on list", ErrMalformed, kind)
	}
	switch kind {
	case OpAdd, OpInsert, OpSet:
		if op.Item, err = l.entry.Read(r); err != nil {
			return Op[T]{}, err
		}
	}
	return op, nil
}

func (l *List[T]) ConsumeDelta(w *bitio.Writer) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consume(w, l.writeItems, l.writeOp)
}

func (l *List[T]) WriteFull(w *bitio.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.full(w, l.writeItems)
}

// ApplyDelta applies a delta from a remote list and makes this list
// read-only. An operation referencing a missing index fails the whole delta.
func (l *List[T]) ApplyDelta(r *bitio.Reader) error {
	commit, err := l.PrepareDelta(r)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// PrepareDelta decodes a delta and replays it on a copy of the items. The
// list is changed only by the returned commit.
func (l *List[T]) PrepareDelta(r *bitio.Reader) (func(), error) {
	reset, items, ops, err := readDelta(r, l.limit, l.entry.Read, l.readOp)
	if err != nil {
		return nil, fmt.Errorf("list delta: %w", err)
	}
	var events []listEvent[T]
	if !reset {
		items = l.Items()
		events = make([]listEvent[T], 0, len(ops))
		for i, op := range ops {
			ev, _, err := applyListOp(&items, op)
			if err != nil {
				return nil, fmt.Errorf("%w: list delta op %d: %w", ErrMalformed, i, err)
			}
			events = append(events, ev)
		}
	}
	return func() {
		l.mu.Lock()
		l.readOnly = true
		l.items = items
		l.version += uint64(max(len(ops), 1))
		hooks := l.hooks
		l.mu.Unlock()

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
