// Package dispatch maps type keys to bit-level write/read functions. It
// replaces generated serializers with an explicit table that is populated at
// startup, validated once and then sealed.
package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-netstate/hash"
)

// Opt configures a Table.
type Opt func(*Table)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(t *Table) {
		t.logger = logger
	}
}

// WithoutBuiltins creates an empty table.
func WithoutBuiltins() Opt {
	return func(t *Table) {
		t.builtins = false
	}
}

// Table is a registry of serialization entries. Register is only allowed
// before Seal; Resolve and Lookup are safe for concurrent use.
type Table struct {
	logger   *zap.Logger
	builtins bool

	mu      sync.RWMutex
	entries map[Key]AnyEntry
	sealed  bool
}

// New creates a Table with the built-in entries registered.
func New(opts ...Opt) *Table {
	t := &Table{
		logger:   zap.NewNop(),
		builtins: true,
		entries:  make(map[Key]AnyEntry),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.builtins {
		for _, e := range Builtins() {
			if err := t.Register(e); err != nil {
				panic("BUG: " + err.Error())
			}
		}
	}
	return t
}

// Register adds an entry under its key.
func (t *Table) Register(e AnyEntry) error {
	key := e.EntryKey()
	if key == "" {
		return fmt.Errorf("%w: empty key for %s", ErrInvalidEntry, e.Type())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return fmt.Errorf("%w: register %q", ErrSealed, key)
	}
	if prev, ok := t.entries[key]; ok {
		return fmt.Errorf("%w: %q already holds %s", ErrDuplicateKey, key, prev.Type())
	}
	t.entries[key] = e
	t.logger.Debug("registered entry",
		zap.String("key", string(key)),
		zap.Stringer("type", e.Type()),
		zap.String("shape", e.Descriptor()),
	)
	return nil
}

// MustRegister is Register that panics on error. It is meant for
// package-level schema setup.
func (t *Table) MustRegister(entries ...AnyEntry) {
	for _, e := range entries {
		if err := t.Register(e); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the entry registered under key.
func (t *Table) Resolve(key Key) (AnyEntry, error) {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return e, nil
}

// Lookup returns the typed entry registered under key.
func Lookup[T any](t *Table, key Key) (Entry[T], error) {
	e, err := t.Resolve(key)
	if err != nil {
		return Entry[T]{}, err
	}
	typed, ok := e.(Entry[T])
	if !ok {
		var zero Entry[T]
		return zero, fmt.Errorf("%w: %q holds %s, requested %s",
			ErrTypeMismatch, key, e.Type(), zero.Type())
	}
	return typed, nil
}

// Validate checks that every key is registered. The returned error names
// all missing keys at once.
func (t *Table) Validate(keys ...Key) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var errs []error
	for _, key := range keys {
		if _, ok := t.entries[key]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrNotFound, key))
		}
	}
	return errors.Join(errs...)
}

// Seal forbids further registration.
func (t *Table) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.sealed {
		t.sealed = true
		t.logger.Debug("table sealed", zap.Int("entries", len(t.entries)))
	}
}

func (t *Table) Sealed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sealed
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Keys returns registered keys in sorted order.
func (t *Table) Keys() []Key {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Hash returns a digest of the registered schema: every key with its type and
// shape, in key order. Peers with different hashes cannot decode each other.
func (t *Table) Hash() [hash.Size]byte {
	keys := t.Keys()
	t.mu.RLock()
	defer t.mu.RUnlock()
	h := hash.GetHasher()
	defer func() {
		h.Reset()
		hash.PutHasher(h)
	}()
	for _, k := range keys {
		e := t.entries[k]
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(e.Type().String()))
		h.Write([]byte{0})
		h.Write([]byte(e.Descriptor()))
		h.Write([]byte{0})
	}
	var out [hash.Size]byte
	h.Sum(out[:0])
	return out
}
