package dispatch

import (
	"fmt"
	"reflect"

	"github.com/spacemeshos/go-netstate/bitio"
)

// Key names a serialization entry. Keys are part of the schema hash, so
// renaming one is a protocol change.
type Key string

// Entry is the write/read pair for values of type T. Write and Read must
// advance the cursor by exactly the same number of bits for a given value.
type Entry[T any] struct {
	Key   Key
	Shape string
	Write func(w *bitio.Writer, v T) error
	Read  func(r *bitio.Reader) (T, error)
	// Validate is optional. When nil, Check falls back to a trial write.
	Validate func(v T) error
}

// AnyEntry is an Entry with its type parameter erased, as stored in a Table.
type AnyEntry interface {
	EntryKey() Key
	Type() reflect.Type
	Descriptor() string
	WriteAny(w *bitio.Writer, v any) error
	ReadAny(r *bitio.Reader) (any, error)
}

func (e Entry[T]) EntryKey() Key { return e.Key }

func (e Entry[T]) Type() reflect.Type { return reflect.TypeFor[T]() }

// Descriptor is the shape description hashed into the schema.
func (e Entry[T]) Descriptor() string {
	if e.Shape != "" {
		return e.Shape
	}
	return e.Type().String()
}

// Check reports whether v can be encoded by this entry without writing it
// anywhere.
func (e Entry[T]) Check(v T) error {
	if e.Validate != nil {
		return e.Validate(v)
	}
	w := bitio.GetWriter()
	defer bitio.PutWriter(w)
	return e.Write(w, v)
}

func (e Entry[T]) WriteAny(w *bitio.Writer, v any) error {
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: entry %q holds %s, got %T", ErrTypeMismatch, e.Key, e.Type(), v)
	}
	return e.Write(w, tv)
}

func (e Entry[T]) ReadAny(r *bitio.Reader) (any, error) {
	return e.Read(r)
}
