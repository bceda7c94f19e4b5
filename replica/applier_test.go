package replica

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
	"github.com/spacemeshos/go-netstate/log/logtest"
	"github.com/spacemeshos/go-netstate/tracked"
)

var level = dispatch.Bounded[int32]("level", 0, 1000)

func levelPayload(tb testing.TB, id ObjectID, seq uint64, v int32) []byte {
	tb.Helper()
	w := bitio.NewWriter(0)
	require.NoError(tb, level.Write(w, v))
	data, err := (&Payload{
		Object:  id,
		Seq:     seq,
		Entries: []Entry{{Field: 0, Delta: w.Copy()}},
	}).Encode(DefaultConfig())
	require.NoError(tb, err)
	return data
}

type receiver struct {
	clock   *clockwork.FakeClock
	reg     *Registry
	applier *Applier
}

func newReceiver(t *testing.T) *receiver {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry()
	applier := NewApplier(DefaultConfig(), reg,
		WithLogger(logtest.New(t)),
		WithClock(clock),
	)
	reg.Subscribe(applier)
	return &receiver{clock: clock, reg: reg, applier: applier}
}

// spawn registers an object with a level scalar under field 0 and records
// every value applied to it.
func (r *receiver) spawn(t *testing.T, id ObjectID) *[]int32 {
	var applied []int32
	s := tracked.NewScalar(level, 0)
	s.OnChange(func(_, next int32) {
		applied = append(applied, next)
	})
	require.NoError(t, r.reg.Spawn(NewObject(id).MustBind(0, s)))
	return &applied
}

func TestApplierDropsOutOfOrder(t *testing.T) {
	r := newReceiver(t)
	applied := r.spawn(t, 1)
	ctx := context.Background()
	for _, seq := range []uint64{1, 2, 2, 1, 3} {
		require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 1, seq, int32(seq*10))))
	}
	require.Equal(t, []int32{10, 20, 30}, *applied)
	last, ok := r.applier.LastApplied(1)
	require.True(t, ok)
	require.EqualValues(t, 3, last)
}

func TestApplierAcceptsAnyFirstSeq(t *testing.T) {
	r := newReceiver(t)
	applied := r.spawn(t, 1)
	require.NoError(t, r.applier.HandlePayload(context.Background(), "host", levelPayload(t, 1, 40, 4)))
	require.Equal(t, []int32{4}, *applied)
}

func TestApplierMalformed(t *testing.T) {
	r := newReceiver(t)
	applied := r.spawn(t, 1)
	ctx := context.Background()

	require.ErrorIs(t, r.applier.HandlePayload(ctx, "host", []byte{0xff}), ErrMalformed)

	w := bitio.NewWriter(0)
	require.NoError(t, level.Write(w, 1))
	unknownField, err := (&Payload{
		Object:  1,
		Seq:     1,
		Entries: []Entry{{Field: 9, Delta: w.Copy()}},
	}).Encode(DefaultConfig())
	require.NoError(t, err)
	require.ErrorIs(t, r.applier.HandlePayload(ctx, "host", unknownField), ErrMalformed)

	truncated, err := (&Payload{Object: 1, Seq: 1, Entries: []Entry{{Field: 0}}}).Encode(DefaultConfig())
	require.NoError(t, err)
	require.ErrorIs(t, r.applier.HandlePayload(ctx, "host", truncated), ErrMalformed)

	require.Empty(t, *applied)
	_, ok := r.applier.LastApplied(1)
	require.False(t, ok, "rejected payloads do not advance the seq")

	require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 1, 1, 7)))
	require.Equal(t, []int32{7}, *applied)
}

func TestApplierReplaysBufferedPayloads(t *testing.T) {
	r := newReceiver(t)
	ctx := context.Background()
	for _, seq := range []uint64{3, 1, 2, 3} {
		require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 5, seq, int32(seq))))
	}
	require.Equal(t, 3, r.applier.Pending(5))

	r.clock.Advance(time.Second)
	applied := r.spawn(t, 5)
	require.Equal(t, []int32{1, 2, 3}, *applied)
	require.Zero(t, r.applier.Pending(5))
}

func TestApplierExpiresBufferedPayloads(t *testing.T) {
	r := newReceiver(t)
	ctx := context.Background()
	require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 5, 1, 1)))
	r.clock.Advance(DefaultConfig().PendingGrace + time.Millisecond)
	require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 5, 2, 2)))

	applied := r.spawn(t, 5)
	require.Equal(t, []int32{2}, *applied)

	require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 6, 1, 1)))
	require.Zero(t, r.applier.Sweep())
	r.clock.Advance(DefaultConfig().PendingGrace + time.Millisecond)
	require.Equal(t, 1, r.applier.Sweep())
	require.Zero(t, r.applier.Pending(6))
}

func TestApplierBoundsPendingBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PendingLimit = 2
	cfg.PendingPerObject = 2
	applier := NewApplier(cfg, NewRegistry(), WithClock(clockwork.NewFakeClock()))
	ctx := context.Background()
	for seq := range uint64(4) {
		require.NoError(t, applier.HandlePayload(ctx, "host", levelPayload(t, 1, seq+1, 1)))
	}
	require.Equal(t, 2, applier.Pending(1))

	require.NoError(t, applier.HandlePayload(ctx, "host", levelPayload(t, 2, 1, 1)))
	require.NoError(t, applier.HandlePayload(ctx, "host", levelPayload(t, 3, 1, 1)))
	require.Zero(t, applier.Pending(1), "least recently used object is evicted")
	require.Equal(t, 1, applier.Pending(2))
	require.Equal(t, 1, applier.Pending(3))
}

func TestApplierDropsPayloadsOfDespawned(t *testing.T) {
	r := newReceiver(t)
	applied := r.spawn(t, 1)
	ctx := context.Background()
	require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 1, 1, 1)))

	require.True(t, r.reg.Despawn(1))
	require.NoError(t, r.applier.HandlePayload(ctx, "host", levelPayload(t, 1, 2, 2)))
	require.Zero(t, r.applier.Pending(1), "despawned ids are not buffered")
	require.Equal(t, []int32{1}, *applied)
	_, ok := r.applier.LastApplied(1)
	require.False(t, ok)
}

func TestApplierLogsDrops(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := NewRegistry()
	applier := NewApplier(DefaultConfig(), reg, WithLogger(zap.New(core)))
	reg.Subscribe(applier)
	require.NoError(t, reg.Spawn(NewObject(1).MustBind(0, tracked.NewScalar(level, 0))))

	ctx := context.Background()
	require.NoError(t, applier.HandlePayload(ctx, "host", levelPayload(t, 1, 2, 5)))
	require.NoError(t, applier.HandlePayload(ctx, "host", levelPayload(t, 1, 1, 6)))

	stale := logs.FilterMessage("stale payload").All()
	require.Len(t, stale, 1)
	require.EqualValues(t, 1, stale[0].ContextMap()["seq"])
	require.EqualValues(t, 2, stale[0].ContextMap()["last"])

	data, err := (&Payload{
		Object:  1,
		Seq:     3,
		Entries: []Entry{{Field: 9, Delta: []byte{0}}},
	}).Encode(DefaultConfig())
	require.NoError(t, err)
	require.ErrorIs(t, applier.HandlePayload(ctx, "host", data), ErrMalformed)

	unknown := logs.FilterMessage("payload references unknown field").All()
	require.Len(t, unknown, 1)
	require.EqualValues(t, 9, unknown[0].ContextMap()["field"])
}

func TestApplierRejectsPayloadAtomically(t *testing.T) {
	r := newReceiver(t)
	items := tracked.NewList(level)
	hp := tracked.NewScalar(level, 0)
	require.NoError(t, r.reg.Spawn(NewObject(1).MustBind(0, items).MustBind(1, hp)))

	host := tracked.NewList(level)
	w := bitio.NewWriter(0)
	_, err := host.ConsumeDelta(w)
	require.NoError(t, err)
	reset := w.Copy()
	require.NoError(t, host.Add(5))
	w = bitio.NewWriter(0)
	_, err = host.ConsumeDelta(w)
	require.NoError(t, err)
	ops := w.Copy()

	encode := func(seq uint64, entries ...Entry) []byte {
		data, err := (&Payload{Object: 1, Seq: seq, Entries: entries}).Encode(DefaultConfig())
		require.NoError(t, err)
		return data
	}
	ctx := context.Background()
	require.NoError(t, r.applier.HandlePayload(ctx, "host", encode(1, Entry{Field: 0, Delta: reset})))

	// the scalar delta is empty and fails after the list ops decode
	bad := encode(2, Entry{Field: 0, Delta: ops}, Entry{Field: 1, Delta: []byte{}})
	for range 2 {
		require.ErrorIs(t, r.applier.HandlePayload(ctx, "host", bad), ErrMalformed)
		require.Empty(t, items.Items())
		require.Zero(t, hp.Get())
	}
	last, ok := r.applier.LastApplied(1)
	require.True(t, ok)
	require.EqualValues(t, 1, last)

	require.NoError(t, r.applier.HandlePayload(ctx, "host", encode(2, Entry{Field: 0, Delta: ops})))
	require.Equal(t, []int32{5}, items.Items())
}
