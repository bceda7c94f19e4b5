package tracked

import (
	"errors"

	"github.com/spacemeshos/go-netstate/bitio"
)

var (
	// ErrReadOnly is returned when mutating a collection that mirrors a
	// remote one.
	ErrReadOnly = errors.New("tracked: collection is read-only on receiver")
	// ErrIndexOutOfRange is returned by list mutations with a bad index.
	ErrIndexOutOfRange = errors.New("tracked: index out of range")
	// ErrEmpty is returned by Pop on an empty stack.
	ErrEmpty = errors.New("tracked: stack is empty")
	// ErrMalformed is returned by ApplyDelta for deltas that do not decode
	// or do not match local state.
	ErrMalformed = bitio.ErrMalformed
)
