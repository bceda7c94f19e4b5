package replica

import (
	"bytes"
	"fmt"
	"math"

	"github.com/multiformats/go-varint"
)

// Entry is the delta of one field.
type Entry struct {
	Field FieldIndex
	Delta []byte
}

// Payload carries the field deltas of one object for one tick.
//
// Wire layout, all integers unsigned LEB128:
//
//	objectId syncSeq entryCount {fieldIndex deltaLength delta}*
type Payload struct {
	Object  ObjectID
	Seq     uint64
	Entries []Entry
}

// Encode serializes p, refusing payloads over the configured limits.
func (p *Payload) Encode(cfg Config) ([]byte, error) {
	if len(p.Entries) > cfg.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries, limit %d", ErrTooLarge, len(p.Entries), cfg.MaxEntries)
	}
	size := varint.UvarintSize(uint64(p.Object)) +
		varint.UvarintSize(p.Seq) +
		varint.UvarintSize(uint64(len(p.Entries)))
	for _, e := range p.Entries {
		if len(e.Delta) > cfg.MaxDeltaSize {
			return nil, fmt.Errorf("%w: field %d delta is %d bytes, limit %d",
				ErrTooLarge, e.Field, len(e.Delta), cfg.MaxDeltaSize)
		}
		size += varint.UvarintSize(uint64(e.Field)) + varint.UvarintSize(uint64(len(e.Delta))) + len(e.Delta)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, varint.ToUvarint(uint64(p.Object))...)
	buf = append(buf, varint.ToUvarint(p.Seq)...)
	buf = append(buf, varint.ToUvarint(uint64(len(p.Entries)))...)
	for _, e := range p.Entries {
		buf = append(buf, varint.ToUvarint(uint64(e.Field))...)
		buf = append(buf, varint.ToUvarint(uint64(len(e.Delta)))...)
		buf = append(buf, e.Delta...)
	}
	return buf, nil
}

// DecodePayload parses data. Any violation of the layout or the configured
// limits is ErrMalformed. Deltas are copied out of data.
func DecodePayload(data []byte, cfg Config) (*Payload, error) {
	rd := bytes.NewReader(data)
	read := func(what string, limit uint64) (uint64, error) {
		v, err := varint.ReadUvarint(rd)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrMalformed, what, err)
		}
		if v > limit {
			return 0, fmt.Errorf("%w: %s %d over limit %d", ErrMalformed, what, v, limit)
		}
		return v, nil
	}
	id, err := read("object id", math.MaxUint32)
	if err != nil {
		return nil, err
	}
	seq, err := read("sync seq", varint.MaxValueUvarint63)
	if err != nil {
		return nil, err
	}
	n, err := read("entry count", uint64(cfg.MaxEntries))
	if err != nil {
		return nil, err
	}
	p := &Payload{
		Object:  ObjectID(id),
		Seq:     seq,
		Entries: make([]Entry, 0, n),
	}
	seen := make(map[FieldIndex]struct{}, n)
	for range n {
		index, err := read("field index", math.MaxUint32)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[FieldIndex(index)]; ok {
			return nil, fmt.Errorf("%w: field %d repeated", ErrMalformed, index)
		}
		seen[FieldIndex(index)] = struct{}{}
		size, err := read("delta length", uint64(cfg.MaxDeltaSize))
		if err != nil {
			return nil, err
		}
		if size > uint64(rd.Len()) {
			return nil, fmt.Errorf("%w: field %d delta is %d bytes, %d left", ErrMalformed, index, size, rd.Len())
		}
		delta := make([]byte, size)
		rd.Read(delta)
		p.Entries = append(p.Entries, Entry{Field: FieldIndex(index), Delta: delta})
	}
	if rd.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, rd.Len())
	}
	return p, nil
}
