package bitio

import (
	"fmt"
	"math"
)

// FloatPacker quantizes floats in [Min, Max] to a fixed number of bits.
// The step between two representable values is (Max-Min)/(2^bits-1), so
// unpacking is off by at most half a step.
type FloatPacker struct {
	lo, hi float64
	bits   int
	steps  float64
}

// NewFloatPacker creates a packer for [lo, hi] using bitCount bits.
func NewFloatPacker(lo, hi float64, bitCount int) (*FloatPacker, error) {
	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: float range [%v, %v]", ErrInvalidWidth, lo, hi)
	}
	if bitCount < 1 || bitCount > 32 {
		return nil, fmt.Errorf("%w: float bit count %d, must be between 1 and 32", ErrInvalidWidth, bitCount)
	}
	return &FloatPacker{
		lo:    lo,
		hi:    hi,
		bits:  bitCount,
		steps: float64(Mask(bitCount)),
	}, nil
}

// NewFloatPackerPrecision creates a packer for [lo, hi] with the smallest bit
// count that keeps the step at or below precision.
func NewFloatPackerPrecision(lo, hi, precision float64) (*FloatPacker, error) {
	if !(precision > 0) {
		return nil, fmt.Errorf("%w: precision %v", ErrInvalidWidth, precision)
	}
	return NewFloatPacker(lo, hi, max(BitsFor(uint64(math.Ceil((hi-lo)/precision))), 1))
}

// Bits returns the number of bits used for each value.
func (p *FloatPacker) Bits() int { return p.bits }

// Precision returns the distance between two adjacent representable values.
func (p *FloatPacker) Precision() float64 { return (p.hi - p.lo) / p.steps }

// Quantize converts v to its packed representation.
func (p *FloatPacker) Quantize(v float64) (uint64, error) {
	if math.IsNaN(v) || v < p.lo || v > p.hi {
		return 0, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, v, p.lo, p.hi)
	}
	return uint64(math.Round((v - p.lo) / (p.hi - p.lo) * p.steps)), nil
}

// Dequantize converts a packed value back to a float.
func (p *FloatPacker) Dequantize(q uint64) float64 {
	if q >= uint64(p.steps) {
		return p.hi
	}
	return p.lo + float64(q)*(p.hi-p.lo)/p.steps
}

// Pack writes v.
func (p *FloatPacker) Pack(w *Writer, v float64) error {
	q, err := p.Quantize(v)
	if err != nil {
		return err
	}
	w.put(q, p.bits)
	return nil
}

// Unpack reads a value written by Pack.
func (p *FloatPacker) Unpack(r *Reader) (float64, error) {
	q, err := r.take(p.bits)
	if err != nil {
		return 0, err
	}
	return p.Dequantize(q), nil
}
