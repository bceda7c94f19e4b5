// Package tracked holds replicated values. A Scalar sends its latest value
// when it changes; collections journal every structural mutation and send
// the journal, falling back to a full reset when a peer is not caught up.
package tracked

import (
	"fmt"
	"sync"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

// Scalar is a single replicated value.
type Scalar[T comparable] struct {
	entry dispatch.Entry[T]

	mu        sync.Mutex
	value     T
	lastAcked T
	dirty     bool
	hooks     []func(prev, next T)
}

// NewScalar creates a clean scalar holding initial.
func NewScalar[T comparable](entry dispatch.Entry[T], initial T) *Scalar[T] {
	return &Scalar[T]{
		entry:     entry,
		value:     initial,
		lastAcked: initial,
	}
}

// OnChange registers fn to be called after the value changes, locally or by
// an applied delta.
func (s *Scalar[T]) OnChange(fn func(prev, next T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Set stores v. Values the entry cannot encode are rejected and leave the
// scalar untouched. Setting the current value is a no-op.
func (s *Scalar[T]) Set(v T) error {
	if err := s.entry.Check(v); err != nil {
		return fmt.Errorf("set %q: %w", s.entry.Key, err)
	}
	s.mu.Lock()
	if v == s.value {
		s.mu.Unlock()
		return nil
	}
	old := s.value
	s.value = v
	s.dirty = true
	hooks := s.hooks
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(old, v)
	}
	return nil
}

func (s *Scalar[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Scalar[T]) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// LastAcked returns the value most recently consumed into a delta.
func (s *Scalar[T]) LastAcked() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAcked
}

// ConsumeDelta writes the value if it changed since the last call.
func (s *Scalar[T]) ConsumeDelta(w *bitio.Writer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return false, nil
	}
	if err := s.entry.Write(w, s.value); err != nil {
		return false, fmt.Errorf("write %q: %w", s.entry.Key, err)
	}
	s.lastAcked = s.value
	s.dirty = false
	return true, nil
}

// WriteFull writes the value regardless of the dirty flag.
func (s *Scalar[T]) WriteFull(w *bitio.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.entry.Write(w, s.value); err != nil {
		return fmt.Errorf("write %q: %w", s.entry.Key, err)
	}
	return nil
}

// ApplyDelta reads a value written by ConsumeDelta or WriteFull.
func (s *Scalar[T]) ApplyDelta(r *bitio.Reader) error {
	commit, err := s.PrepareDelta(r)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// PrepareDelta reads a value without storing it. The returned commit stores
// the value and fires hooks.
func (s *Scalar[T]) PrepareDelta(r *bitio.Reader) (func(), error) {
	v, err := s.entry.Read(r)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", s.entry.Key, err)
	}
	return func() {
		s.mu.Lock()
		old := s.value
		s.value = v
		s.lastAcked = v
		s.dirty = false
		hooks := s.hooks
		s.mu.Unlock()
		if old != v {
			for _, fn := range hooks {
				fn(old, v)
			}
		}
	}, nil
}
