package bitio

import (
	"fmt"
	"math"
)

// DefaultMaxBlob is the default limit for length prefixed blobs.
const DefaultMaxBlob = 1 << 20

// Reader consumes bits written by Writer.
// Reader is not safe for concurrent use.
type Reader struct {
	buf     []byte
	pos     int
	maxBlob int
}

// NewReader creates a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b, maxBlob: DefaultMaxBlob}
}

// SetMaxBlob limits the length of blobs returned by ReadBytes and ReadString.
func (r *Reader) SetMaxBlob(n int) {
	r.maxBlob = n
}

// BitPosition returns the number of bits consumed.
func (r *Reader) BitPosition() int {
	return r.pos
}

// Remaining returns the number of bits left in the buffer, including padding
// bits in the last byte.
func (r *Reader) Remaining() int {
	return 8*len(r.buf) - r.pos
}

func (r *Reader) take(n int) (uint64, error) {
	if n > r.Remaining() {
		return 0, fmt.Errorf("%w: need %d bits, have %d", ErrTruncated, n, r.Remaining())
	}
	var (
		v    uint64
		done int
	)
	for done < n {
		off := r.pos & 7
		take := min(8-off, n-done)
		chunk := uint64(r.buf[r.pos>>3]>>off) & (uint64(1)<<take - 1)
		v |= chunk << done
		done += take
		r.pos += take
	}
	return v, nil
}

// ReadBool reads a single bit.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.take(1)
	return v == 1, err
}

// ReadBits reads an unsigned value of exactly n bits.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 1 || n > 64 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	return r.take(n)
}

// ReadInt reads a two's complement signed value of exactly n bits.
func (r *Reader) ReadInt(n int) (int64, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	if n < 64 && v&(uint64(1)<<(n-1)) != 0 {
		v |= ^Mask(n)
	}
	return int64(v), nil
}

// ReadRange reads a value written with WriteRange using the same bounds.
func (r *Reader) ReadRange(lo, hi int64) (int64, error) {
	if lo > hi {
		return 0, fmt.Errorf("%w: empty range [%d, %d]", ErrInvalidWidth, lo, hi)
	}
	n := RangeBits(lo, hi)
	if n == 0 {
		return lo, nil
	}
	v, err := r.take(n)
	if err != nil {
		return 0, err
	}
	if v > uint64(hi)-uint64(lo) {
		return 0, fmt.Errorf("%w: %d exceeds range [%d, %d]", ErrMalformed, v, lo, hi)
	}
	return int64(uint64(lo) + v), nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.take(8)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.take(16)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.take(32)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	return r.take(64)
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.take(8)
	return int8(uint8(v)), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.take(16)
	return int16(uint16(v)), err
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.take(32)
	return int32(uint32(v)), err
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.take(64)
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.take(32)
	return math.Float32frombits(uint32(v)), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.take(64)
	return math.Float64frombits(v), err
}

// ReadVarUint reads a value written with WriteVarUint.
func (r *Reader) ReadVarUint() (uint64, error) {
	a0, err := r.take(8)
	if err != nil {
		return 0, err
	}
	switch {
	case a0 <= 240:
		return a0, nil
	case a0 <= 248:
		a1, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return 240 + (a0-241)<<8 + a1, nil
	case a0 == 249:
		v, err := r.take(16)
		if err != nil {
			return 0, err
		}
		// bytes are big endian for this tag
		return 2288 + (v&0xff)<<8 + v>>8, nil
	default:
		n := int(a0) - 247
		var v uint64
		for i := range n {
			b, err := r.take(8)
			if err != nil {
				return 0, err
			}
			v |= b << (8 * i)
		}
		return v, nil
	}
}

// ReadVarInt reads a value written with WriteVarInt.
func (r *Reader) ReadVarInt() (int64, error) {
	v, err := r.ReadVarUint()
	return UnZigZag(v), err
}

// ReadBytes reads a length prefixed blob. The returned slice is a copy.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.maxBlob) {
		return nil, fmt.Errorf("%w: blob length %d over limit %d", ErrMalformed, n, r.maxBlob)
	}
	if int(n)*8 > r.Remaining() {
		return nil, fmt.Errorf("%w: blob length %d, have %d bits", ErrTruncated, n, r.Remaining())
	}
	out := make([]byte, n)
	if r.pos&7 == 0 {
		copy(out, r.buf[r.pos>>3:])
		r.pos += 8 * int(n)
		return out, nil
	}
	for i := range out {
		b, _ := r.take(8)
		out[i] = byte(b)
	}
	return out, nil
}

// ReadString reads a length prefixed string.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
