package dispatch_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spacemeshos/go-scale"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

func TestBuiltinsRoundTrip(t *testing.T) {
	table := dispatch.New()
	for _, tc := range []struct {
		key   dispatch.Key
		value any
		bits  int
	}{
		{dispatch.KeyBool, true, 1},
		{dispatch.KeyInt8, int8(-128), 8},
		{dispatch.KeyInt16, int16(-300), 16},
		{dispatch.KeyInt32, int32(math.MinInt32), 32},
		{dispatch.KeyInt64, int64(math.MaxInt64), 64},
		{dispatch.KeyUint8, uint8(255), 8},
		{dispatch.KeyUint16, uint16(65535), 16},
		{dispatch.KeyUint32, uint32(7), 32},
		{dispatch.KeyUint64, uint64(math.MaxUint64), 64},
		{dispatch.KeyFloat32, float32(-1.5), 32},
		{dispatch.KeyFloat64, math.Pi, 64},
		{dispatch.KeyString, "hello", 8 + 5*8},
		{dispatch.KeyBytes, []byte{1, 2, 3}, 8 + 3*8},
		{dispatch.KeyVarUint, uint64(2000), 16},
		{dispatch.KeyVarInt, int64(-1), 8},
		{dispatch.KeyOpTag, uint8(5), dispatch.OpTagBits},
	} {
		t.Run(string(tc.key), func(t *testing.T) {
			e, err := table.Resolve(tc.key)
			require.NoError(t, err)
			w := bitio.NewWriter(0)
			// misaligned start
			w.WriteBool(true)
			require.NoError(t, e.WriteAny(w, tc.value))
			require.Equal(t, tc.bits+1, w.BitPosition())

			r := bitio.NewReader(w.Bytes())
			_, err = r.ReadBool()
			require.NoError(t, err)
			got, err := e.ReadAny(r)
			require.NoError(t, err)
			require.Equal(t, tc.value, got)
		})
	}
}

func TestBounded(t *testing.T) {
	e := dispatch.Bounded[int32]("health", 0, 100)
	w := bitio.NewWriter(0)
	require.NoError(t, e.Write(w, 73))
	require.Equal(t, 7, w.BitPosition())
	got, err := e.Read(bitio.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.EqualValues(t, 73, got)

	require.ErrorIs(t, e.Check(101), bitio.ErrOutOfRange)
	require.ErrorIs(t, e.Write(w, -1), bitio.ErrOutOfRange)
	require.Equal(t, 7, w.BitPosition())

	require.Panics(t, func() { dispatch.Bounded[int]("bad", 5, 1) })
}

func TestBits(t *testing.T) {
	e := dispatch.Bits[uint16]("flags", 5)
	require.NoError(t, e.Check(31))
	require.ErrorIs(t, e.Check(32), bitio.ErrOutOfRange)
	require.Panics(t, func() { dispatch.Bits[uint8]("bad", 0) })
}

func TestCheckFallsBackToTrialWrite(t *testing.T) {
	inner := dispatch.Bits[uint8]("inner", 3)
	e := dispatch.Entry[uint8]{Key: "raw", Write: inner.Write, Read: inner.Read}
	require.NoError(t, e.Check(7))
	require.ErrorIs(t, e.Check(8), bitio.ErrOutOfRange)
}

func TestQuantized(t *testing.T) {
	e, err := dispatch.Quantized[float32]("speed", 0, 50, 10)
	require.NoError(t, err)
	w := bitio.NewWriter(0)
	require.NoError(t, e.Write(w, 12.5))
	require.Equal(t, 10, w.BitPosition())
	got, err := e.Read(bitio.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.InDelta(t, 12.5, got, 0.05)
	require.ErrorIs(t, e.Check(51), bitio.ErrOutOfRange)

	_, err = dispatch.Quantized[float64]("bad", 0, 1, 0)
	require.ErrorIs(t, err, bitio.ErrInvalidWidth)

	p, err := dispatch.QuantizedPrecision[float64]("x", -10, 10, 0.01)
	require.NoError(t, err)
	require.NoError(t, p.Check(9.99))
}

func TestRotationTiersBlocks(t *testing.T) {
	rot, err := dispatch.Rotation("rot", 9)
	require.NoError(t, err)
	w := bitio.NewWriter(0)
	require.NoError(t, rot.Write(w, bitio.Identity))
	require.Equal(t, 29, w.BitPosition())
	q, err := rot.Read(bitio.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.InDelta(t, 1, q.W, 1e-3)

	tiers, err := dispatch.Tiers("ammo", 4, 8, 16)
	require.NoError(t, err)
	require.ErrorIs(t, tiers.Check(1<<16), bitio.ErrOutOfRange)
	w = bitio.NewWriter(0)
	require.NoError(t, tiers.Write(w, 10))
	require.Equal(t, 5, w.BitPosition())

	blocks, err := dispatch.Blocks("score", 7)
	require.NoError(t, err)
	w = bitio.NewWriter(0)
	require.NoError(t, blocks.Write(w, 1000))
	got, err := blocks.Read(bitio.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.EqualValues(t, 1000, got)

	_, err = dispatch.Blocks("bad", 0)
	require.Error(t, err)
}

func TestSlice(t *testing.T) {
	e := dispatch.Slice("path", dispatch.Bounded[int]("step", 0, 15), 4)
	w := bitio.NewWriter(0)
	require.NoError(t, e.Write(w, []int{1, 15, 0}))
	require.Equal(t, 8+3*4, w.BitPosition())
	got, err := e.Read(bitio.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []int{1, 15, 0}, got)

	require.ErrorIs(t, e.Check([]int{1, 2, 3, 4, 5}), bitio.ErrOutOfRange)
	require.ErrorIs(t, e.Check([]int{16}), bitio.ErrOutOfRange)

	w = bitio.NewWriter(0)
	w.WriteVarUint(5)
	_, err = e.Read(bitio.NewReader(w.Bytes()))
	require.ErrorIs(t, err, bitio.ErrMalformed)
}

type loadout struct {
	Slot   uint32
	Weapon []byte
}

func (l *loadout) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact32(enc, l.Slot)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, l.Weapon, 32)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (l *loadout) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		l.Slot = field
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, 32)
		if err != nil {
			return total, err
		}
		total += n
		l.Weapon = field
	}
	return total, nil
}

func TestScaleEntry(t *testing.T) {
	e := dispatch.Scale[loadout]("loadout", 64)
	in := loadout{Slot: 3, Weapon: []byte("railgun")}
	w := bitio.NewWriter(0)
	w.WriteBool(false)
	require.NoError(t, e.Write(w, in))

	r := bitio.NewReader(w.Bytes())
	_, err := r.ReadBool()
	require.NoError(t, err)
	got, err := e.Read(r)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(in, got))

	small := dispatch.Scale[loadout]("loadout", 4)
	require.ErrorIs(t, small.Check(in), bitio.ErrOutOfRange)

	w = bitio.NewWriter(0)
	w.WriteBytes([]byte{0xff})
	_, err = e.Read(bitio.NewReader(w.Bytes()))
	require.ErrorIs(t, err, bitio.ErrMalformed)
}

type inventory struct {
	Gold  int
	Items map[string]int
}

func TestMsgpackEntry(t *testing.T) {
	e := dispatch.Msgpack[inventory]("inventory", 256)
	in := inventory{Gold: 120, Items: map[string]int{"potion": 3, "key": 1}}
	w := bitio.NewWriter(0)
	require.NoError(t, e.Write(w, in))
	got, err := e.Read(bitio.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(in, got))

	require.ErrorIs(t, dispatch.Msgpack[inventory]("inventory", 2).Check(in), bitio.ErrOutOfRange)
}
