package dispatch

import (
	"fmt"

	"github.com/spacemeshos/go-scale"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/codec"
)

// ScalePtr is satisfied by *T when T has SCALE methods.
type ScalePtr[T any] interface {
	*T
	scale.Encodable
	scale.Decodable
}

// Scale encodes a SCALE struct as a length-prefixed blob of at most limit
// bytes.
func Scale[T any, H ScalePtr[T]](key Key, limit int) Entry[T] {
	encode := func(v T) ([]byte, error) {
		buf, err := codec.Encode(H(&v))
		if err != nil {
			return nil, err
		}
		if len(buf) > limit {
			return nil, fmt.Errorf("%w: encoded %d bytes over limit %d", bitio.ErrOutOfRange, len(buf), limit)
		}
		return buf, nil
	}
	return Entry[T]{
		Key:   key,
		Shape: fmt.Sprintf("scale(%d)", limit),
		Write: func(w *bitio.Writer, v T) error {
			buf, err := encode(v)
			if err != nil {
				return fmt.Errorf("scale entry %q: %w", key, err)
			}
			w.WriteBytes(buf)
			return nil
		},
		Read: func(r *bitio.Reader) (T, error) {
			var v T
			buf, err := r.ReadBytes()
			if err != nil {
				return v, err
			}
			if len(buf) > limit {
				return v, fmt.Errorf("%w: scale entry %q: %d bytes over limit %d", bitio.ErrMalformed, key, len(buf), limit)
			}
			if err := codec.Decode(buf, H(&v)); err != nil {
				return v, fmt.Errorf("%w: scale entry %q: %w", bitio.ErrMalformed, key, err)
			}
			return v, nil
		},
		Validate: func(v T) error {
			_, err := encode(v)
			return err
		},
	}
}

// Msgpack encodes an arbitrary struct with msgpack as a length-prefixed blob
// of at most limit bytes.
func Msgpack[T any](key Key, limit int) Entry[T] {
	encode := func(v T) ([]byte, error) {
		buf, err := msgpack.Marshal(v)
		if err != nil {
			return nil, err
		}
		if len(buf) > limit {
			return nil, fmt.Errorf("%w: encoded %d bytes over limit %d", bitio.ErrOutOfRange, len(buf), limit)
		}
		return buf, nil
	}
	return Entry[T]{
		Key:   key,
		Shape: fmt.Sprintf("msgpack(%d)", limit),
		Write: func(w *bitio.Writer, v T) error {
			buf, err := encode(v)
			if err != nil {
				return fmt.Errorf("msgpack entry %q: %w", key, err)
			}
			w.WriteBytes(buf)
			return nil
		},
		Read: func(r *bitio.Reader) (T, error) {
			var v T
			buf, err := r.ReadBytes()
			if err != nil {
				return v, err
			}
			if len(buf) > limit {
				return v, fmt.Errorf("%w: msgpack entry %q: %d bytes over limit %d", bitio.ErrMalformed, key, len(buf), limit)
			}
			if err := msgpack.Unmarshal(buf, &v); err != nil {
				return v, fmt.Errorf("%w: msgpack entry %q: %w", bitio.ErrMalformed, key, err)
			}
			return v, nil
		},
		Validate: func(v T) error {
			_, err := encode(v)
			return err
		},
	}
}
