package log

import (
	"encoding/hex"

	"go.uber.org/zap"
)

// ObjectID returns a field for a replicated object id.
func ObjectID(id uint32) zap.Field {
	return zap.Uint32("object", id)
}

// SyncSeq returns a field for a payload sequence number.
func SyncSeq(seq uint64) zap.Field {
	return zap.Uint64("seq", seq)
}

// FieldIndex returns a field for the index of a field within an object.
func FieldIndex(index uint32) zap.Field {
	return zap.Uint32("field", index)
}

// Peer returns a field for a remote peer.
func Peer(peer string) zap.Field {
	return zap.String("peer", peer)
}

// SchemaHash returns a field with the short form of a schema hash.
func SchemaHash(h [32]byte) zap.Field {
	return zap.String("schema", hex.EncodeToString(h[:6]))
}
