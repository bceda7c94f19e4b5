// Package codec encodes handshake messages and struct-valued fields with
// SCALE. Values must implement scale.Encodable/scale.Decodable.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spacemeshos/go-scale"
)

// ErrNotScale is returned for values that do not implement the scale interfaces.
var ErrNotScale = errors.New("codec: value does not implement scale encoding")

// Encodable is an interface that must be implemented by a struct to be encoded.
type Encodable interface{}

// Decodable is an interface that must be implemented by a struct to be decoded.
type Decodable interface{}

// EncodeTo encodes value to a writer stream.
func EncodeTo(w io.Writer, value Encodable) (int, error) {
	encodable, ok := value.(scale.Encodable)
	if !ok {
		return 0, fmt.Errorf("encode %T: %w", value, ErrNotScale)
	}
	return encodable.EncodeScale(scale.NewEncoder(w))
}

// DecodeFrom decodes a value using data from a reader stream.
func DecodeFrom(r io.Reader, value Decodable) (int, error) {
	decodable, ok := value.(scale.Decodable)
	if !ok {
		return 0, fmt.Errorf("decode %T: %w", value, ErrNotScale)
	}
	return decodable.DecodeScale(scale.NewDecoder(r))
}

var encoderPool = sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(64)
		return b
	},
}

func getEncoderBuffer() *bytes.Buffer {
	return encoderPool.Get().(*bytes.Buffer)
}

func putEncoderBuffer(b *bytes.Buffer) {
	b.Reset()
	encoderPool.Put(b)
}

// Encode value to a byte buffer.
func Encode(value Encodable) ([]byte, error) {
	b := getEncoderBuffer()
	defer putEncoderBuffer(b)
	_, err := EncodeTo(b, value)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(b.Bytes()))
	copy(buf, b.Bytes())
	return buf, nil
}

// Decode value from a byte buffer. Trailing bytes are an error.
func Decode(buf []byte, value Decodable) error {
	r := bytes.NewReader(buf)
	if _, err := DecodeFrom(r, value); err != nil {
		return fmt.Errorf("decode from buffer: %w", err)
	}
	if r.Len() != 0 {
		return fmt.Errorf("decode from buffer: %d trailing bytes", r.Len())
	}
	return nil
}
