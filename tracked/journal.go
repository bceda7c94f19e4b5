package tracked

import (
	"fmt"
	"sync"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

// OpKind is the 3-bit tag of a journaled collection operation.
type OpKind uint8

const (
	OpAdd OpKind = iota
	OpClear
	OpInsert
	OpRemoveAt
	OpSet
	OpRemove
	OpPop
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpClear:
		return "clear"
	case OpInsert:
		return "insert"
	case OpRemoveAt:
		return "removeat"
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	case OpPop:
		return "pop"
	}
	return fmt.Sprintf("op(%d)", uint8(k))
}

// Op is a journaled set, list or stack operation. Index is used by list
// operations only.
type Op[T any] struct {
	Kind  OpKind
	Index int
	Item  T
}

// DefaultLimit bounds item and operation counts read from a delta, and the
// length of a journal before it is replaced by a reset.
const DefaultLimit = 1 << 16

type options struct {
	limit int
}

// Opt configures a collection.
type Opt func(*options)

// WithLimit sets the item and journal limit.
func WithLimit(n int) Opt {
	return func(o *options) {
		o.limit = n
	}
}

// Delta mode bit.
const (
	modeOps   = false
	modeReset = true
)

// journal is the sender and receiver bookkeeping shared by collections.
// mu guards the embedding collection as well.
type journal[O any] struct {
	mu       sync.Mutex
	ops      []O
	version  uint64
	caughtUp bool
	readOnly bool
	limit    int
}

func (j *journal[O]) init(opts []Opt) {
	o := options{limit: DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}
	j.limit = o.limit
}

func (j *journal[O]) writable() error {
	if j.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (j *journal[O]) record(op O) {
	j.version++
	j.ops = append(j.ops, op)
	if len(j.ops) > j.limit {
		// a reset is cheaper than replaying this many operations
		j.truncate()
		j.caughtUp = false
	}
}

func (j *journal[O]) truncate() {
	clear(j.ops)
	j.ops = j.ops[:0]
}

// Dirty reports whether the next ConsumeDelta will write anything.
func (j *journal[O]) Dirty() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return !j.caughtUp || len(j.ops) > 0
}

// Version is incremented by every applied mutation.
func (j *journal[O]) Version() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.version
}

// ReadOnly reports whether the collection mirrors a remote one.
func (j *journal[O]) ReadOnly() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readOnly
}

// Resync makes the next delta a full reset.
func (j *journal[O]) Resync() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caughtUp = false
	j.truncate()
}

// Pending returns a copy of the operations not yet consumed.
func (j *journal[O]) Pending() []O {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]O(nil), j.ops...)
}

// consume must be called with mu held.
func (j *journal[O]) consume(
	w *bitio.Writer,
	writeItems func(*bitio.Writer) error,
	writeOp func(*bitio.Writer, O) error,
) (bool, error) {
	if !j.caughtUp {
		w.WriteBool(modeReset)
		if err := writeItems(w); err != nil {
			return false, err
		}
		j.caughtUp = true
		j.truncate()
		return true, nil
	}
	if len(j.ops) == 0 {
		return false, nil
	}
	w.WriteBool(modeOps)
	w.WriteVarUint(uint64(len(j.ops)))
	for i, op := range j.ops {
		if err := writeOp(w, op); err != nil {
			return false, fmt.Errorf("op %d: %w", i, err)
		}
	}
	j.truncate()
	return true, nil
}

// full must be called with mu held.
func (j *journal[O]) full(w *bitio.Writer, writeItems func(*bitio.Writer) error) error {
	w.WriteBool(modeReset)
	if err := writeItems(w); err != nil {
		return err
	}
	j.caughtUp = true
	return nil
}

func readCount(r *bitio.Reader, limit int) (int, error) {
	n, err := r.ReadVarUint()
	if err != nil {
		return 0, err
	}
	if n > uint64(limit) {
		return 0, fmt.Errorf("%w: count %d over limit %d", ErrMalformed, n, limit)
	}
	return int(n), nil
}

func readIndex(r *bitio.Reader, limit int) (int, error) {
	i, err := r.ReadVarUint()
	if err != nil {
		return 0, err
	}
	if i >= uint64(limit) {
		return 0, fmt.Errorf("%w: index %d over limit %d", ErrMalformed, i, limit)
	}
	return int(i), nil
}

func readTag(r *bitio.Reader) (OpKind, error) {
	tag, err := dispatch.OpTag.Read(r)
	return OpKind(tag), err
}

func writeTag(w *bitio.Writer, k OpKind) error {
	return dispatch.OpTag.Write(w, uint8(k))
}

// readDelta decodes a whole delta before anything is applied, so a
// truncated delta leaves the collection untouched.
func readDelta[T, O any](
	r *bitio.Reader,
	limit int,
	readItem func(*bitio.Reader) (T, error),
	readOp func(*bitio.Reader) (O, error),
) (reset bool, items []T, ops []O, err error) {
	reset, err = r.ReadBool()
	if err != nil {
		return false, nil, nil, err
	}
	n, err := readCount(r, limit)
	if err != nil {
		return false, nil, nil, err
	}
	if reset {
		items = make([]T, 0, n)
		for i := range n {
			item, err := readItem(r)
			if err != nil {
				return false, nil, nil, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, item)
		}
		return true, items, nil, nil
	}
	ops = make([]O, 0, n)
	for i := range n {
		op, err := readOp(r)
		if err != nil {
			return false, nil, nil, fmt.Errorf("op %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return false, nil, ops, nil
}
