package dispatch

import (
	"github.com/spacemeshos/go-netstate/bitio"
)

const (
	KeyBool    Key = "bool"
	KeyInt8    Key = "int8"
	KeyInt16   Key = "int16"
	KeyInt32   Key = "int32"
	KeyInt64   Key = "int64"
	KeyUint8   Key = "uint8"
	KeyUint16  Key = "uint16"
	KeyUint32  Key = "uint32"
	KeyUint64  Key = "uint64"
	KeyFloat32 Key = "float32"
	KeyFloat64 Key = "float64"
	KeyString  Key = "string"
	KeyBytes   Key = "bytes"
	KeyVarUint Key = "varuint"
	KeyVarInt  Key = "varint"
	KeyOpTag   Key = "optag"
)

// OpTagBits is the width of a collection operation tag.
const OpTagBits = 3

func infallible[T any](key Key, write func(*bitio.Writer, T), read func(*bitio.Reader) (T, error)) Entry[T] {
	return Entry[T]{
		Key: key,
		Write: func(w *bitio.Writer, v T) error {
			write(w, v)
			return nil
		},
		Read:     read,
		Validate: func(T) error { return nil },
	}
}

var (
	Bool    = infallible(KeyBool, (*bitio.Writer).WriteBool, (*bitio.Reader).ReadBool)
	Int8    = infallible(KeyInt8, (*bitio.Writer).WriteInt8, (*bitio.Reader).ReadInt8)
	Int16   = infallible(KeyInt16, (*bitio.Writer).WriteInt16, (*bitio.Reader).ReadInt16)
	Int32   = infallible(KeyInt32, (*bitio.Writer).WriteInt32, (*bitio.Reader).ReadInt32)
	Int64   = infallible(KeyInt64, (*bitio.Writer).WriteInt64, (*bitio.Reader).ReadInt64)
	Uint8   = infallible(KeyUint8, (*bitio.Writer).WriteUint8, (*bitio.Reader).ReadUint8)
	Uint16  = infallible(KeyUint16, (*bitio.Writer).WriteUint16, (*bitio.Reader).ReadUint16)
	Uint32  = infallible(KeyUint32, (*bitio.Writer).WriteUint32, (*bitio.Reader).ReadUint32)
	Uint64  = infallible(KeyUint64, (*bitio.Writer).WriteUint64, (*bitio.Reader).ReadUint64)
	Float32 = infallible(KeyFloat32, (*bitio.Writer).WriteFloat32, (*bitio.Reader).ReadFloat32)
	Float64 = infallible(KeyFloat64, (*bitio.Writer).WriteFloat64, (*bitio.Reader).ReadFloat64)
	String  = infallible(KeyString, (*bitio.Writer).WriteString, (*bitio.Reader).ReadString)
	Bytes   = infallible(KeyBytes, (*bitio.Writer).WriteBytes, (*bitio.Reader).ReadBytes)
	VarUint = infallible(KeyVarUint, (*bitio.Writer).WriteVarUint, (*bitio.Reader).ReadVarUint)
	VarInt  = infallible(KeyVarInt, (*bitio.Writer).WriteVarInt, (*bitio.Reader).ReadVarInt)

	// OpTag encodes collection operation kinds.
	OpTag = Bits[uint8](KeyOpTag, OpTagBits)
)

// Builtins returns the entries registered by New.
func Builtins() []AnyEntry {
	return []AnyEntry{
		Bool,
		Int8, Int16, Int32, Int64,
		Uint8, Uint16, Uint32, Uint64,
		Float32, Float64,
		String, Bytes,
		VarUint, VarInt,
		OpTag,
	}
}
