package bitio_test

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-netstate/bitio"
)

func TestBitsExactWidth(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		value uint64
		width int
	}{
		{desc: "single bit", value: 1, width: 1},
		{desc: "zero in 3 bits", value: 0, width: 3},
		{desc: "max in 7 bits", value: 127, width: 7},
		{desc: "crosses byte boundary", value: 0x1ff, width: 9},
		{desc: "odd width", value: 0x15555, width: 17},
		{desc: "full word", value: math.MaxUint64, width: 64},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			w := bitio.NewWriter(0)
			require.NoError(t, w.WriteBits(tc.value, tc.width))
			require.Equal(t, tc.width, w.BitPosition())
			require.Equal(t, (tc.width+7)/8, w.ByteLen())

			r := bitio.NewReader(w.Bytes())
			v, err := r.ReadBits(tc.width)
			require.NoError(t, err)
			require.Equal(t, tc.value, v)
			require.Equal(t, tc.width, r.BitPosition())
		})
	}
}

func TestContiguousPacking(t *testing.T) {
	w := bitio.NewWriter(0)
	w.WriteBool(true)
	require.NoError(t, w.WriteBits(5, 3))
	require.NoError(t, w.WriteInt(-3, 4))
	require.NoError(t, w.WriteRange(250, 200, 300))
	w.WriteBool(false)
	w.WriteBool(true)
	// 1 + 3 + 4 + 7 + 1 + 1
	require.Equal(t, 17, w.BitPosition())
	require.Equal(t, 3, w.ByteLen())

	r := bitio.NewReader(w.Bytes())
	b, err := r.ReadBool()
	require.NoError(t, err)
	require.True(t, b)
	u, err := r.ReadBits(3)
	require.NoError(t, err)
	require.EqualValues(t, 5, u)
	i, err := r.ReadInt(4)
	require.NoError(t, err)
	require.EqualValues(t, -3, i)
	rv, err := r.ReadRange(200, 300)
	require.NoError(t, err)
	require.EqualValues(t, 250, rv)
	b, err = r.ReadBool()
	require.NoError(t, err)
	require.False(t, b)
	b, err = r.ReadBool()
	require.NoError(t, err)
	require.True(t, b)
	require.Equal(t, 17, r.BitPosition())
}

func TestLayoutIsLSBFirst(t *testing.T) {
	w := bitio.NewWriter(0)
	w.WriteBool(true)
	require.NoError(t, w.WriteBits(0b101, 3))
	require.NoError(t, w.WriteBits(0xf, 4))
	require.NoError(t, w.WriteBits(0x3, 2))
	require.Equal(t, []byte{0b1111_1011, 0b11}, w.Bytes())
}

func TestWriteOutOfRange(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		write func(w *bitio.Writer) error
		err   error
	}{
		{
			desc:  "unsigned too wide",
			write: func(w *bitio.Writer) error { return w.WriteBits(8, 3) },
			err:   bitio.ErrOutOfRange,
		},
		{
			desc:  "signed above max",
			write: func(w *bitio.Writer) error { return w.WriteInt(8, 4) },
			err:   bitio.ErrOutOfRange,
		},
		{
			desc:  "signed below min",
			write: func(w *bitio.Writer) error { return w.WriteInt(-9, 4) },
			err:   bitio.ErrOutOfRange,
		},
		{
			desc:  "range above",
			write: func(w *bitio.Writer) error { return w.WriteRange(11, 0, 10) },
			err:   bitio.ErrOutOfRange,
		},
		{
			desc:  "range below",
			write: func(w *bitio.Writer) error { return w.WriteRange(-1, 0, 10) },
			err:   bitio.ErrOutOfRange,
		},
		{
			desc:  "zero width",
			write: func(w *bitio.Writer) error { return w.WriteBits(0, 0) },
			err:   bitio.ErrInvalidWidth,
		},
		{
			desc:  "width above 64",
			write: func(w *bitio.Writer) error { return w.WriteBits(0, 65) },
			err:   bitio.ErrInvalidWidth,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			w := bitio.NewWriter(0)
			require.ErrorIs(t, tc.write(w), tc.err)
			require.Zero(t, w.BitPosition(), "nothing must be written on error")
		})
	}
}

func TestReadTruncated(t *testing.T) {
	w := bitio.NewWriter(0)
	require.NoError(t, w.WriteBits(3, 5))

	r := bitio.NewReader(w.Bytes())
	_, err := r.ReadBits(5)
	require.NoError(t, err)
	_, err = r.ReadBits(3)
	require.NoError(t, err, "padding bits of the last byte are readable")
	_, err = r.ReadBool()
	require.ErrorIs(t, err, bitio.ErrTruncated)
	require.NotErrorIs(t, err, bitio.ErrOutOfRange)

	_, err = bitio.NewReader(nil).ReadVarUint()
	require.ErrorIs(t, err, bitio.ErrTruncated)

	w = bitio.NewWriter(0)
	w.WriteString("hello")
	_, err = bitio.NewReader(w.Bytes()[:3]).ReadString()
	require.ErrorIs(t, err, bitio.ErrTruncated)
}

func TestBlobLimit(t *testing.T) {
	w := bitio.NewWriter(0)
	w.WriteBytes(make([]byte, 100))
	r := bitio.NewReader(w.Bytes())
	r.SetMaxBlob(99)
	_, err := r.ReadBytes()
	require.ErrorIs(t, err, bitio.ErrMalformed)
}

func TestVarUintSizes(t *testing.T) {
	for _, tc := range []struct {
		value uint64
		size  int
	}{
		{0, 1},
		{240, 1},
		{241, 2},
		{2287, 2},
		{2288, 3},
		{67823, 3},
		{67824, 4},
		{0xffffff, 4},
		{0x1000000, 5},
		{0xffffffff, 5},
		{0xffffffffff, 6},
		{0xffffffffffff, 7},
		{0xffffffffffffff, 8},
		{math.MaxUint64, 9},
	} {
		w := bitio.NewWriter(0)
		w.WriteVarUint(tc.value)
		require.Equal(t, tc.size, w.ByteLen(), "value %d", tc.value)
		require.Equal(t, tc.size, bitio.VarUintSize(tc.value), "value %d", tc.value)

		v, err := bitio.NewReader(w.Bytes()).ReadVarUint()
		require.NoError(t, err)
		require.Equal(t, tc.value, v)
	}
}

func TestZigZag(t *testing.T) {
	for _, v := range []int64{0, -1, 1, -2, 2, math.MaxInt64, math.MinInt64} {
		require.Equal(t, v, bitio.UnZigZag(bitio.ZigZag(v)))
	}
	require.EqualValues(t, 3, bitio.ZigZag(-2))
}

type primitives struct {
	B   bool
	U8  uint8
	U16 uint16
	U32 uint32
	U64 uint64
	I8  int8
	I16 int16
	I32 int32
	I64 int64
	F32 float32
	F64 float64
	VU  uint64
	VI  int64
	S   string
	Bs  []byte
}

func writePrimitives(w *bitio.Writer, p *primitives) {
	w.WriteBool(p.B)
	w.WriteUint8(p.U8)
	w.WriteUint16(p.U16)
	w.WriteUint32(p.U32)
	w.WriteUint64(p.U64)
	w.WriteInt8(p.I8)
	w.WriteInt16(p.I16)
	w.WriteInt32(p.I32)
	w.WriteInt64(p.I64)
	w.WriteFloat32(p.F32)
	w.WriteFloat64(p.F64)
	w.WriteVarUint(p.VU)
	w.WriteVarInt(p.VI)
	w.WriteString(p.S)
	w.WriteBytes(p.Bs)
}

func readPrimitives(t *testing.T, r *bitio.Reader) primitives {
	var (
		p   primitives
		err error
	)
	p.B, err = r.ReadBool()
	require.NoError(t, err)
	p.U8, err = r.ReadUint8()
	require.NoError(t, err)
	p.U16, err = r.ReadUint16()
	require.NoError(t, err)
	p.U32, err = r.ReadUint32()
	require.NoError(t, err)
	p.U64, err = r.ReadUint64()
	require.NoError(t, err)
	p.I8, err = r.ReadInt8()
	require.NoError(t, err)
	p.I16, err = r.ReadInt16()
	require.NoError(t, err)
	p.I32, err = r.ReadInt32()
	require.NoError(t, err)
	p.I64, err = r.ReadInt64()
	require.NoError(t, err)
	p.F32, err = r.ReadFloat32()
	require.NoError(t, err)
	p.F64, err = r.ReadFloat64()
	require.NoError(t, err)
	p.VU, err = r.ReadVarUint()
	require.NoError(t, err)
	p.VI, err = r.ReadVarInt()
	require.NoError(t, err)
	p.S, err = r.ReadString()
	require.NoError(t, err)
	p.Bs, err = r.ReadBytes()
	require.NoError(t, err)
	return p
}

func TestPrimitivesRoundTrip(t *testing.T) {
	f := fuzz.NewWithSeed(1001).NilChance(0).NumElements(0, 64)
	for range 200 {
		var p primitives
		f.Fuzz(&p)
		if math.IsNaN(p.F64) || math.IsNaN(float64(p.F32)) {
			continue
		}
		if p.Bs == nil {
			p.Bs = []byte{}
		}
		w := bitio.GetWriter()
		// misalign everything that follows
		w.WriteBool(true)
		writePrimitives(w, &p)

		r := bitio.NewReader(w.Copy())
		_, err := r.ReadBool()
		require.NoError(t, err)
		require.Equal(t, p, readPrimitives(t, r))
		require.Less(t, r.Remaining(), 8)
		bitio.PutWriter(w)
	}
}

func TestRangeRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		lo, hi int64
		bits   int
	}{
		{lo: 0, hi: 0, bits: 0},
		{lo: 0, hi: 1, bits: 1},
		{lo: -100, hi: 100, bits: 8},
		{lo: 1000, hi: 1255, bits: 8},
		{lo: math.MinInt64, hi: math.MaxInt64, bits: 64},
	} {
		require.Equal(t, tc.bits, bitio.RangeBits(tc.lo, tc.hi))
		for _, v := range []int64{tc.lo, tc.hi, tc.lo/2 + tc.hi/2} {
			w := bitio.NewWriter(0)
			require.NoError(t, w.WriteRange(v, tc.lo, tc.hi))
			require.Equal(t, tc.bits, w.BitPosition())
			got, err := bitio.NewReader(w.Bytes()).ReadRange(tc.lo, tc.hi)
			require.NoError(t, err)
			require.Equal(t, v, got)
		}
	}
}
