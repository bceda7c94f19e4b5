package bitio

import (
	"fmt"
	"math"
)

// Quaternion is a rotation.
type Quaternion struct {
	X, Y, Z, W float32
}

// Identity is the rotation that does nothing.
var Identity = Quaternion{W: 1}

func (q Quaternion) at(i int) float32 {
	switch i {
	case 0:
		return q.X
	case 1:
		return q.Y
	case 2:
		return q.Z
	default:
		return q.W
	}
}

// normalize returns q scaled to unit length. Quaternions that are already
// close to unit length are left untouched.
func (q Quaternion) normalize() Quaternion {
	const eps = 1e-5
	dot := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if dot >= 1-eps && dot <= 1+eps {
		return q
	}
	l := float32(math.Sqrt(float64(dot)))
	if l < eps {
		return Identity
	}
	return Quaternion{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// quaternionMax bounds the three smallest components of a unit quaternion.
const quaternionMax = 1 / math.Sqrt2

// QuaternionPacker writes rotations with the "smallest three" scheme: two bits
// for the index of the largest component and bitsPerElement bits for each of
// the other three. The largest component is recomputed on read.
type QuaternionPacker struct {
	bitsPerElement int
	steps          float64
}

// NewQuaternionPacker creates a packer using bitsPerElement bits per
// component, for a total of 2+3*bitsPerElement bits.
func NewQuaternionPacker(bitsPerElement int) (*QuaternionPacker, error) {
	if bitsPerElement < 2 || bitsPerElement > 20 {
		return nil, fmt.Errorf("%w: quaternion bits per element %d, must be between 2 and 20",
			ErrInvalidWidth, bitsPerElement)
	}
	return &QuaternionPacker{bitsPerElement: bitsPerElement, steps: float64(Mask(bitsPerElement))}, nil
}

// Bits returns the total number of bits used per rotation.
func (p *QuaternionPacker) Bits() int {
	return 2 + 3*p.bitsPerElement
}

func (p *QuaternionPacker) quantize(v float32) uint64 {
	f := min(max(float64(v), -quaternionMax), quaternionMax)
	return uint64(math.Round((f + quaternionMax) / (2 * quaternionMax) * p.steps))
}

func (p *QuaternionPacker) dequantize(q uint64) float32 {
	return float32(float64(q)*(2*quaternionMax)/p.steps - quaternionMax)
}

// Pack writes q. q is normalized first; a zero quaternion is sent as Identity.
func (p *QuaternionPacker) Pack(w *Writer, q Quaternion) {
	q = q.normalize()
	largest := 0
	for i := 1; i < 4; i++ {
		if abs32(q.at(i)) > abs32(q.at(largest)) {
			largest = i
		}
	}
	// q and -q are the same rotation, so the largest component is always sent
	// as positive.
	sign := float32(1)
	if q.at(largest) < 0 {
		sign = -1
	}
	w.put(uint64(largest), 2)
	for i := range 4 {
		if i != largest {
			w.put(p.quantize(sign*q.at(i)), p.bitsPerElement)
		}
	}
}

// Unpack reads a rotation written by Pack.
func (p *QuaternionPacker) Unpack(r *Reader) (Quaternion, error) {
	idx, err := r.take(2)
	if err != nil {
		return Quaternion{}, err
	}
	var (
		comps [4]float32
		sum   float32
	)
	for i := range 4 {
		if i == int(idx) {
			continue
		}
		q, err := r.take(p.bitsPerElement)
		if err != nil {
			return Quaternion{}, err
		}
		comps[i] = p.dequantize(q)
		sum += comps[i] * comps[i]
	}
	comps[idx] = float32(math.Sqrt(math.Max(0, float64(1-sum))))
	return Quaternion{comps[0], comps[1], comps[2], comps[3]}, nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
