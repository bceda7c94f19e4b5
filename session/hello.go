package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-netstate/hash"
)

// Hello is exchanged before any payload. A client sends it with a nil
// session id, the host answers with its own.
type Hello struct {
	SessionID  uuid.UUID
	SchemaHash [hash.Size]byte
	Version    uint32
}

func (h *Hello) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeByteArray(enc, h.SessionID[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteArray(enc, h.SchemaHash[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(enc, h.Version)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (h *Hello) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := scale.DecodeByteArray(dec, h.SessionID[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.DecodeByteArray(dec, h.SchemaHash[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		h.Version = field
	}
	return total, nil
}

// CheckHello verifies that remote can exchange payloads with local.
func CheckHello(local, remote Hello) error {
	if local.Version != remote.Version {
		return fmt.Errorf("%w: local %d, remote %d", ErrVersionMismatch, local.Version, remote.Version)
	}
	if local.SchemaHash != remote.SchemaHash {
		return fmt.Errorf("%w: local %x, remote %x",
			ErrSchemaMismatch, local.SchemaHash[:6], remote.SchemaHash[:6])
	}
	if local.SessionID != uuid.Nil && remote.SessionID != uuid.Nil && local.SessionID != remote.SessionID {
		return fmt.Errorf("%w: local %s, remote %s", ErrSessionMismatch, local.SessionID, remote.SessionID)
	}
	return nil
}
