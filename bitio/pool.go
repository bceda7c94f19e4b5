package bitio

import "sync"

var writerPool = sync.Pool{
	New: func() any {
		return NewWriter(64)
	},
}

// GetWriter returns an empty Writer from the pool.
func GetWriter() *Writer {
	return writerPool.Get().(*Writer)
}

// PutWriter resets w and returns it to the pool. w must not be used after.
func PutWriter(w *Writer) {
	w.Reset()
	writerPool.Put(w)
}
