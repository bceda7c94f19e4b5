// Package hash provides pooled blake3 hashers.
package hash

import (
	"sync"

	"github.com/zeebo/blake3"
)

// Size of a digest returned by Sum.
const Size = 32

var pool = &sync.Pool{
	New: func() any {
		return blake3.New()
	},
}

// GetHasher will get a blake3 hasher from the pool.
// It may or may not allocate a new one. Consumers are expected
// to call Reset() on the hasher before putting it back in
// the pool.
func GetHasher() *blake3.Hasher {
	return pool.Get().(*blake3.Hasher)
}

// PutHasher returns the hasher back to the pool.
// Consumers are expected to call Reset() on the
// instance before putting it back in the pool.
func PutHasher(hasher *blake3.Hasher) {
	pool.Put(hasher)
}

// Sum returns the blake3 digest of the concatenation of chunks.
func Sum(chunks ...[]byte) (out [Size]byte) {
	h := GetHasher()
	defer func() {
		h.Reset()
		PutHasher(h)
	}()
	for _, chunk := range chunks {
		h.Write(chunk)
	}
	h.Sum(out[:0])
	return out
}
