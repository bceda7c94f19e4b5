package replica

import (
	"errors"

	"github.com/spacemeshos/go-netstate/bitio"
)

var (
	// ErrIDReused is returned when spawning an id that is or was in use.
	ErrIDReused = errors.New("replica: object id reused")
	// ErrFieldIndexCollision is returned when two fields share an index.
	ErrFieldIndexCollision = errors.New("replica: field index collision")
	// ErrSpawned is returned when binding fields to a spawned object.
	ErrSpawned = errors.New("replica: object already spawned")
	// ErrUnknownObject is returned for ids that are not tracked.
	ErrUnknownObject = errors.New("replica: unknown object")
	// ErrTooLarge is returned when a payload exceeds configured limits on
	// the sending side.
	ErrTooLarge = errors.New("replica: payload over limit")
	// ErrMalformed is returned for payloads that cannot be decoded or do not
	// match the target object.
	ErrMalformed = bitio.ErrMalformed
)
