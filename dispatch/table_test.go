package dispatch_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
)

func TestRegisterDuplicate(t *testing.T) {
	table := dispatch.New(dispatch.WithLogger(zaptest.NewLogger(t)))
	require.ErrorIs(t, table.Register(dispatch.Bool), dispatch.ErrDuplicateKey)

	health := dispatch.Bounded[int32]("health", 0, 100)
	require.NoError(t, table.Register(health))
	require.ErrorIs(t, table.Register(dispatch.Bounded[int32]("health", 0, 200)), dispatch.ErrDuplicateKey)

	require.ErrorIs(t, table.Register(dispatch.Entry[int]{}), dispatch.ErrInvalidEntry)
}

func TestLookup(t *testing.T) {
	table := dispatch.New()
	require.NoError(t, table.Register(dispatch.Bounded[int32]("health", 0, 100)))

	e, err := dispatch.Lookup[int32](table, "health")
	require.NoError(t, err)
	require.Equal(t, dispatch.Key("health"), e.Key)

	_, err = dispatch.Lookup[int64](table, "health")
	require.ErrorIs(t, err, dispatch.ErrTypeMismatch)

	_, err = dispatch.Lookup[int32](table, "mana")
	require.ErrorIs(t, err, dispatch.ErrNotFound)

	_, err = table.Resolve("mana")
	require.ErrorIs(t, err, dispatch.ErrNotFound)
}

func TestValidateNamesEveryMissingKey(t *testing.T) {
	table := dispatch.New()
	require.NoError(t, table.Validate(dispatch.KeyBool, dispatch.KeyVarUint))

	err := table.Validate(dispatch.KeyBool, "position", "rotation")
	require.ErrorIs(t, err, dispatch.ErrNotFound)
	require.ErrorContains(t, err, `"position"`)
	require.ErrorContains(t, err, `"rotation"`)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	require.Len(t, joined.Unwrap(), 2)
}

func TestSeal(t *testing.T) {
	table := dispatch.New()
	require.False(t, table.Sealed())
	table.Seal()
	table.Seal()
	require.True(t, table.Sealed())
	require.ErrorIs(t, table.Register(dispatch.Bits[uint8]("flags", 4)), dispatch.ErrSealed)

	_, err := table.Resolve(dispatch.KeyString)
	require.NoError(t, err)
}

func TestHash(t *testing.T) {
	a := dispatch.New()
	b := dispatch.New()
	require.Equal(t, a.Hash(), b.Hash())

	require.NoError(t, a.Register(dispatch.Bounded[int32]("health", 0, 100)))
	require.NotEqual(t, a.Hash(), b.Hash())

	// same key and type, different width
	require.NoError(t, b.Register(dispatch.Bounded[int32]("health", 0, 1000)))
	require.NotEqual(t, a.Hash(), b.Hash())

	c := dispatch.New()
	require.NoError(t, c.Register(dispatch.Bounded[int32]("health", 0, 100)))
	require.Equal(t, a.Hash(), c.Hash())
}

func TestKeysSorted(t *testing.T) {
	table := dispatch.New(dispatch.WithoutBuiltins())
	require.Zero(t, table.Len())
	table.MustRegister(dispatch.Bits[uint8]("b", 2), dispatch.Bits[uint8]("a", 2), dispatch.Bits[uint8]("c", 2))
	require.Equal(t, []dispatch.Key{"a", "b", "c"}, table.Keys())
	require.Panics(t, func() { table.MustRegister(dispatch.Bits[uint8]("a", 3)) })
}

func TestConcurrentResolve(t *testing.T) {
	table := dispatch.New()
	table.Seal()
	keys := table.Keys()

	var eg errgroup.Group
	for i := range 8 {
		eg.Go(func() error {
			for _, k := range keys {
				e, err := table.Resolve(k)
				if err != nil {
					return err
				}
				if e.EntryKey() != k {
					return fmt.Errorf("worker %d: resolved %q for %q", i, e.EntryKey(), k)
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
}

func TestWriteAnyTypeMismatch(t *testing.T) {
	table := dispatch.New()
	e, err := table.Resolve(dispatch.KeyUint16)
	require.NoError(t, err)

	w := bitio.NewWriter(0)
	require.ErrorIs(t, e.WriteAny(w, int16(1)), dispatch.ErrTypeMismatch)
	require.Zero(t, w.BitPosition())
}
