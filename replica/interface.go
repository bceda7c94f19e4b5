package replica

import (
	"context"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/transport"
)

//go:generate mockgen -typed -package=replica -destination=./mocks.go -source=./interface.go

// Field is one replicated member of an object. Scalars and collections from
// package tracked implement it.
type Field interface {
	Dirty() bool
	ConsumeDelta(w *bitio.Writer) (bool, error)
	// PrepareDelta decodes a delta without changing the field. The field
	// changes only when the returned commit is called.
	PrepareDelta(r *bitio.Reader) (commit func(), err error)
	WriteFull(w *bitio.Writer) error
}

// Sender delivers encoded payloads. transport.Transport implements it.
type Sender interface {
	Send(ctx context.Context, to transport.Peer, data []byte) error
}

// Listener is notified by the Registry after an object is spawned or
// despawned.
type Listener interface {
	Spawned(obj *Object)
	Despawned(id ObjectID)
}

// Objects resolves spawned objects by id.
type Objects interface {
	Get(id ObjectID) (*Object, bool)
}
