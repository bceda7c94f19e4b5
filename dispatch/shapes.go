package dispatch

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/spacemeshos/go-netstate/bitio"
)

// Bounded encodes an integer in [lo, hi] using exactly RangeBits(lo, hi)
// bits. Bounds must fit in int64.
func Bounded[T constraints.Integer](key Key, lo, hi T) Entry[T] {
	if lo > hi {
		panic(fmt.Sprintf("BUG: bounded entry %q with lo %d > hi %d", key, lo, hi))
	}
	validate := func(v T) error {
		if v < lo || v > hi {
			return fmt.Errorf("%w: %d not in [%d, %d]", bitio.ErrOutOfRange, v, lo, hi)
		}
		return nil
	}
	return Entry[T]{
		Key:   key,
		Shape: fmt.Sprintf("range(%d,%d)", lo, hi),
		Write: func(w *bitio.Writer, v T) error {
			if err := validate(v); err != nil {
				return err
			}
			return w.WriteRange(int64(v), int64(lo), int64(hi))
		},
		Read: func(r *bitio.Reader) (T, error) {
			v, err := r.ReadRange(int64(lo), int64(hi))
			return T(v), err
		},
		Validate: validate,
	}
}

// Bits encodes an unsigned integer in exactly n bits.
func Bits[T constraints.Unsigned](key Key, n int) Entry[T] {
	if n < 1 || n > 64 {
		panic(fmt.Sprintf("BUG: bits entry %q with width %d", key, n))
	}
	validate := func(v T) error {
		if uint64(v) > bitio.Mask(n) {
			return fmt.Errorf("%w: %d does not fit in %d bits", bitio.ErrOutOfRange, v, n)
		}
		return nil
	}
	return Entry[T]{
		Key:   key,
		Shape: fmt.Sprintf("bits(%d)", n),
		Write: func(w *bitio.Writer, v T) error {
			return w.WriteBits(uint64(v), n)
		},
		Read: func(r *bitio.Reader) (T, error) {
			v, err := r.ReadBits(n)
			return T(v), err
		},
		Validate: validate,
	}
}

// Quantized encodes a float in [lo, hi] with the given bit budget.
func Quantized[T constraints.Float](key Key, lo, hi float64, bits int) (Entry[T], error) {
	p, err := bitio.NewFloatPacker(lo, hi, bits)
	if err != nil {
		return Entry[T]{}, fmt.Errorf("quantized entry %q: %w", key, err)
	}
	return quantized[T](key, p), nil
}

// QuantizedPrecision encodes a float in [lo, hi] with at least the given
// precision.
func QuantizedPrecision[T constraints.Float](key Key, lo, hi, precision float64) (Entry[T], error) {
	p, err := bitio.NewFloatPackerPrecision(lo, hi, precision)
	if err != nil {
		return Entry[T]{}, fmt.Errorf("quantized entry %q: %w", key, err)
	}
	return quantized[T](key, p), nil
}

func quantized[T constraints.Float](key Key, p *bitio.FloatPacker) Entry[T] {
	return Entry[T]{
		Key:   key,
		Shape: fmt.Sprintf("quantized(%d,%g)", p.Bits(), p.Precision()),
		Write: func(w *bitio.Writer, v T) error {
			return p.Pack(w, float64(v))
		},
		Read: func(r *bitio.Reader) (T, error) {
			v, err := p.Unpack(r)
			return T(v), err
		},
		Validate: func(v T) error {
			_, err := p.Quantize(float64(v))
			return err
		},
	}
}

// Rotation encodes a unit quaternion with smallest-three compression.
func Rotation(key Key, bitsPerElement int) (Entry[bitio.Quaternion], error) {
	p, err := bitio.NewQuaternionPacker(bitsPerElement)
	if err != nil {
		return Entry[bitio.Quaternion]{}, fmt.Errorf("rotation entry %q: %w", key, err)
	}
	return Entry[bitio.Quaternion]{
		Key:   key,
		Shape: fmt.Sprintf("quaternion(%d)", bitsPerElement),
		Write: func(w *bitio.Writer, q bitio.Quaternion) error {
			p.Pack(w, q)
			return nil
		},
		Read:     p.Unpack,
		Validate: func(bitio.Quaternion) error { return nil },
	}, nil
}

// Tiers encodes an unsigned integer with a three tier prefix.
func Tiers(key Key, small, medium, large int) (Entry[uint64], error) {
	p, err := bitio.NewVarIntPacker(small, medium, large)
	if err != nil {
		return Entry[uint64]{}, fmt.Errorf("tiered entry %q: %w", key, err)
	}
	return Entry[uint64]{
		Key:   key,
		Shape: fmt.Sprintf("tiers(%d,%d,%d)", small, medium, large),
		Write: p.Pack,
		Read:  p.Unpack,
		Validate: func(v uint64) error {
			if v > bitio.Mask(large) {
				return fmt.Errorf("%w: %d does not fit in %d bits", bitio.ErrOutOfRange, v, large)
			}
			return nil
		},
	}, nil
}

// Blocks encodes an unsigned integer as continuation-flagged blocks.
func Blocks(key Key, size int) (Entry[uint64], error) {
	p, err := bitio.NewBlockPacker(size)
	if err != nil {
		return Entry[uint64]{}, fmt.Errorf("block entry %q: %w", key, err)
	}
	return Entry[uint64]{
		Key:   key,
		Shape: fmt.Sprintf("blocks(%d)", size),
		Write: func(w *bitio.Writer, v uint64) error {
			p.Pack(w, v)
			return nil
		},
		Read:     p.Unpack,
		Validate: func(uint64) error { return nil },
	}, nil
}

// Slice encodes a varuint length followed by up to limit elements.
func Slice[T any](key Key, elem Entry[T], limit int) Entry[[]T] {
	validate := func(v []T) error {
		if len(v) > limit {
			return fmt.Errorf("%w: %d elements over limit %d", bitio.ErrOutOfRange, len(v), limit)
		}
		if elem.Validate == nil {
			return nil
		}
		for i, item := range v {
			if err := elem.Validate(item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
	return Entry[[]T]{
		Key:   key,
		Shape: fmt.Sprintf("slice(%s,%d)", elem.Descriptor(), limit),
		Write: func(w *bitio.Writer, v []T) error {
			if len(v) > limit {
				return fmt.Errorf("%w: %d elements over limit %d", bitio.ErrOutOfRange, len(v), limit)
			}
			w.WriteVarUint(uint64(len(v)))
			for i, item := range v {
				if err := elem.Write(w, item); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			return nil
		},
		Read: func(r *bitio.Reader) ([]T, error) {
			n, err := r.ReadVarUint()
			if err != nil {
				return nil, err
			}
			if n > uint64(limit) {
				return nil, fmt.Errorf("%w: %d elements over limit %d", bitio.ErrMalformed, n, limit)
			}
			out := make([]T, 0, n)
			for i := range n {
				item, err := elem.Read(r)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out = append(out, item)
			}
			return out, nil
		},
		Validate: validate,
	}
}
