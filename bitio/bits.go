package bitio

import "math/bits"

// Mask returns a value with the n low bits set.
func Mask(n int) uint64 {
	if n >= 64 {
		return maxUint64
	}
	return uint64(1)<<n - 1
}

const maxUint64 = ^uint64(0)

// BitsFor returns the number of bits needed to hold any value in [0, max].
func BitsFor(max uint64) int {
	return bits.Len64(max)
}

// RangeBits returns the number of bits needed to hold any value in [lo, hi].
func RangeBits(lo, hi int64) int {
	return BitsFor(uint64(hi) - uint64(lo))
}

// ZigZag maps signed values to unsigned ones so that values with a small
// magnitude stay small: 0, -1, 1, -2 become 0, 1, 2, 3.
func ZigZag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// UnZigZag reverses ZigZag.
func UnZigZag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
