package bitio

import "fmt"

// VarIntPacker writes unsigned values in one of three tiers. Small values take
// smallBits+1 bits, medium values mediumBits+2 bits and large values
// largeBits+2 bits. Values above the large tier are rejected.
type VarIntPacker struct {
	small, medium, large int
}

// NewVarIntPacker creates a packer from the bit counts of each tier.
func NewVarIntPacker(smallBits, mediumBits, largeBits int) (*VarIntPacker, error) {
	switch {
	case smallBits < 1:
		return nil, fmt.Errorf("%w: small tier must be at least 1 bit", ErrInvalidWidth)
	case smallBits >= mediumBits:
		return nil, fmt.Errorf("%w: medium tier must be larger than small tier", ErrInvalidWidth)
	case mediumBits >= largeBits:
		return nil, fmt.Errorf("%w: large tier must be larger than medium tier", ErrInvalidWidth)
	case largeBits > 64:
		return nil, fmt.Errorf("%w: large tier must be 64 bits or less", ErrInvalidWidth)
	case mediumBits > 62:
		return nil, fmt.Errorf("%w: medium tier must be 62 bits or less", ErrInvalidWidth)
	}
	return &VarIntPacker{small: smallBits, medium: mediumBits, large: largeBits}, nil
}

// NewVarIntPackerFromValues creates a packer whose tiers hold values up to
// small, medium and large.
func NewVarIntPackerFromValues(small, medium, large uint64) (*VarIntPacker, error) {
	return NewVarIntPacker(BitsFor(small), BitsFor(medium), BitsFor(large))
}

// Pack writes v.
func (p *VarIntPacker) Pack(w *Writer, v uint64) error {
	switch {
	case v <= Mask(p.small):
		w.put(v<<1, p.small+1)
	case v <= Mask(p.medium):
		w.put(v<<2|0b01, p.medium+2)
	case v <= Mask(p.large):
		w.put(0b11, 2)
		w.put(v, p.large)
	default:
		return fmt.Errorf("%w: %d over max of %d", ErrOutOfRange, v, Mask(p.large))
	}
	return nil
}

// Unpack reads a value written with Pack.
func (p *VarIntPacker) Unpack(r *Reader) (uint64, error) {
	first, err := r.ReadBool()
	if err != nil {
		return 0, err
	}
	if !first {
		return r.take(p.small)
	}
	second, err := r.ReadBool()
	if err != nil {
		return 0, err
	}
	if !second {
		return r.take(p.medium)
	}
	return r.take(p.large)
}

// BlockPacker writes unsigned values in blocks of a fixed number of bits, each
// followed by a continuation bit. With blocks of 6 bits values under 2^6 take 7
// bits, values under 2^12 take 14 bits and so on.
type BlockPacker struct {
	size int
}

// NewBlockPacker creates a packer with blocks of size bits.
func NewBlockPacker(size int) (*BlockPacker, error) {
	if size < 1 || size > 63 {
		return nil, fmt.Errorf("%w: block size %d, must be between 1 and 63", ErrInvalidWidth, size)
	}
	return &BlockPacker{size: size}, nil
}

// Pack writes v.
func (p *BlockPacker) Pack(w *Writer, v uint64) {
	for {
		block := v & Mask(p.size)
		v >>= p.size
		if v == 0 {
			w.put(block, p.size+1)
			return
		}
		w.put(block|uint64(1)<<p.size, p.size+1)
	}
}

// Unpack reads a value written with Pack.
func (p *BlockPacker) Unpack(r *Reader) (uint64, error) {
	var (
		v     uint64
		shift int
	)
	for {
		block, err := r.take(p.size + 1)
		if err != nil {
			return 0, err
		}
		if shift >= 64 {
			return 0, fmt.Errorf("%w: block encoded value overflows 64 bits", ErrMalformed)
		}
		v |= (block & Mask(p.size)) << shift
		shift += p.size
		if block>>p.size == 0 {
			return v, nil
		}
	}
}
