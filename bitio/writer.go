// Package bitio implements a forward-only bit cursor over byte buffers.
// Values are packed LSB-first into consecutive bytes without any padding
// between them, so a value written with a width of n bits consumes exactly n
// bits of the buffer.
package bitio

import (
	"fmt"
	"math"
	"math/bits"
)

// Writer appends bits to a growing byte buffer.
// Writer is not safe for concurrent use.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter creates a Writer with room for capacity bytes.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Reset drops everything written so far, keeping the allocated buffer.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.pos = 0
}

// BitPosition returns the number of bits written.
func (w *Writer) BitPosition() int {
	return w.pos
}

// ByteLen returns the number of bytes needed to hold the written bits.
func (w *Writer) ByteLen() int {
	return (w.pos + 7) >> 3
}

// Bytes returns the written bytes. The slice aliases the internal buffer and
// is only valid until the next write or Reset.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.ByteLen()]
}

// Copy returns a copy of the written bytes.
func (w *Writer) Copy() []byte {
	out := make([]byte, w.ByteLen())
	copy(out, w.buf)
	return out
}

// put appends the n low bits of v. v must not have bits set above n.
func (w *Writer) put(v uint64, n int) {
	for n > 0 {
		idx := w.pos >> 3
		if idx == len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		off := w.pos & 7
		take := min(8-off, n)
		w.buf[idx] |= byte(v&(uint64(1)<<take-1)) << off
		v >>= take
		n -= take
		w.pos += take
	}
}

// WriteBool writes a single bit.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.put(1, 1)
	} else {
		w.put(0, 1)
	}
}

// WriteBits writes v using exactly n bits. If v needs more than n bits
// ErrOutOfRange is returned and nothing is written.
func (w *Writer) WriteBits(v uint64, n int) error {
	if n < 1 || n > 64 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	if n < 64 && v>>n != 0 {
		return fmt.Errorf("%w: %d doesn't fit in %d bits", ErrOutOfRange, v, n)
	}
	w.put(v, n)
	return nil
}

// WriteInt writes a two's complement signed value using exactly n bits.
func (w *Writer) WriteInt(v int64, n int) error {
	if n < 1 || n > 64 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	if n < 64 {
		lo, hi := -(int64(1) << (n - 1)), int64(1)<<(n-1)-1
		if v < lo || v > hi {
			return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, v, lo, hi)
		}
	}
	w.put(uint64(v)&Mask(n), n)
	return nil
}

// WriteRange writes v relative to lo, using BitsFor(hi-lo) bits.
// A range holding a single value takes no space at all.
func (w *Writer) WriteRange(v, lo, hi int64) error {
	if lo > hi {
		return fmt.Errorf("%w: empty range [%d, %d]", ErrInvalidWidth, lo, hi)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, v, lo, hi)
	}
	n := RangeBits(lo, hi)
	if n == 0 {
		return nil
	}
	w.put(uint64(v)-uint64(lo), n)
	return nil
}

func (w *Writer) WriteUint8(v uint8)   { w.put(uint64(v), 8) }
func (w *Writer) WriteUint16(v uint16) { w.put(uint64(v), 16) }
func (w *Writer) WriteUint32(v uint32) { w.put(uint64(v), 32) }
func (w *Writer) WriteUint64(v uint64) { w.put(v, 64) }
func (w *Writer) WriteInt8(v int8)     { w.put(uint64(uint8(v)), 8) }
func (w *Writer) WriteInt16(v int16)   { w.put(uint64(uint16(v)), 16) }
func (w *Writer) WriteInt32(v int32)   { w.put(uint64(uint32(v)), 32) }
func (w *Writer) WriteInt64(v int64)   { w.put(uint64(v), 64) }

// WriteFloat32 writes the IEEE 754 bits of v.
func (w *Writer) WriteFloat32(v float32) {
	w.put(uint64(math.Float32bits(v)), 32)
}

// WriteFloat64 writes the IEEE 754 bits of v.
func (w *Writer) WriteFloat64(v float64) {
	w.put(math.Float64bits(v), 64)
}

// WriteVarUint writes v using the packed variable length encoding:
// values up to 240 take one byte, up to 2287 two bytes, up to 67823 three
// bytes. Larger values are written as a tag byte followed by 3 to 8 little
// endian bytes.
func (w *Writer) WriteVarUint(v uint64) {
	switch {
	case v <= 240:
		w.put(v, 8)
	case v <= 2287:
		w.put((v-240)>>8+241, 8)
		w.put((v-240)&0xff, 8)
	case v <= 67823:
		w.put(249, 8)
		w.put((v-2288)>>8, 8)
		w.put((v-2288)&0xff, 8)
	default:
		n := max((bits.Len64(v)+7)>>3, 3)
		w.put(uint64(247+n), 8)
		for range n {
			w.put(v&0xff, 8)
			v >>= 8
		}
	}
}

// WriteVarInt writes a zigzag encoded signed value with WriteVarUint.
func (w *Writer) WriteVarInt(v int64) {
	w.WriteVarUint(ZigZag(v))
}

// WriteBytes writes a length prefixed blob.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	if w.pos&7 == 0 {
		w.buf = append(w.buf[:w.pos>>3], b...)
		w.pos += 8 * len(b)
		return
	}
	for _, c := range b {
		w.put(uint64(c), 8)
	}
}

// WriteString writes a length prefixed string.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// VarUintSize returns the number of bytes WriteVarUint uses for v.
func VarUintSize(v uint64) int {
	switch {
	case v <= 240:
		return 1
	case v <= 2287:
		return 2
	case v <= 67823:
		return 3
	default:
		return 1 + max((bits.Len64(v)+7)>>3, 3)
	}
}
