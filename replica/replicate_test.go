package replica

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-netstate/dispatch"
	"github.com/spacemeshos/go-netstate/log/logtest"
	"github.com/spacemeshos/go-netstate/tracked"
	"github.com/spacemeshos/go-netstate/transport"
)

var (
	hpEntry   = dispatch.Bounded[int32]("hp", 0, 100)
	nameEntry = dispatch.String
)

type unit struct {
	hp   *tracked.Scalar[int32]
	name *tracked.Scalar[string]
	tags *tracked.Set[string]
	path *tracked.List[uint32]
	hits *tracked.Map[string, int64]
}

func newUnit(hp int32, name string) *unit {
	return &unit{
		hp:   tracked.NewScalar(hpEntry, hp),
		name: tracked.NewScalar(nameEntry, name),
		tags: tracked.NewSet(dispatch.String),
		path: tracked.NewList(dispatch.Uint32),
		hits: tracked.NewMap(dispatch.String, dispatch.VarInt),
	}
}

func (u *unit) object(id ObjectID) *Object {
	return NewObject(id).
		MustBind(0, u.hp).
		MustBind(1, u.name).
		MustBind(2, u.tags).
		MustBind(3, u.path).
		MustBind(7, u.hits)
}

type unitState struct {
	HP   int32
	Name string
	Tags []string
	Path []uint32
	Hits map[string]int64
}

func (u *unit) state() unitState {
	return unitState{
		HP:   u.hp.Get(),
		Name: u.name.Get(),
		Tags: u.tags.Items(),
		Path: u.path.Items(),
		Hits: u.hits.Snapshot(),
	}
}

type client struct {
	reg     *Registry
	applier *Applier
	units   map[ObjectID]*unit
}

func TestReplicationOverHub(t *testing.T) {
	ctx := context.Background()
	hub := transport.NewHub(transport.WithShuffle(3), transport.WithDuplicates(0.2))
	host, err := hub.Join("host")
	require.NoError(t, err)

	hostReg := NewRegistry()
	agg := NewAggregator(DefaultConfig(), host, WithLogger(logtest.New(t)))
	hostReg.Subscribe(agg)

	clients := map[transport.Peer]*client{}
	for _, peer := range []transport.Peer{"c1", "c2"} {
		ep, err := hub.Join(peer)
		require.NoError(t, err)
		reg := NewRegistry()
		applier := NewApplier(DefaultConfig(), reg, WithLogger(logtest.New(t)))
		reg.Subscribe(applier)
		ep.Receive(applier.HandlePayload)
		clients[peer] = &client{reg: reg, applier: applier, units: map[ObjectID]*unit{}}
	}

	hostUnits := map[ObjectID]*unit{}
	spawn := func(id ObjectID) {
		u := newUnit(100, fmt.Sprintf("unit-%d", id))
		hostUnits[id] = u
		require.NoError(t, hostReg.Spawn(u.object(id)))
		for peer, c := range clients {
			// the spawn message itself is out of band
			mirror := newUnit(0, "")
			c.units[id] = mirror
			require.NoError(t, c.reg.Spawn(mirror.object(id)))
			require.NoError(t, agg.AddObserver(id, peer))
		}
	}
	spawn(1)
	spawn(2)

	rng := rand.New(rand.NewPCG(11, 12))
	for tick := range 60 {
		for _, u := range hostUnits {
			switch rng.IntN(6) {
			case 0:
				require.NoError(t, u.hp.Set(rng.Int32N(101)))
			case 1:
				require.NoError(t, u.name.Set(fmt.Sprintf("n%d", rng.IntN(4))))
			case 2:
				require.NoError(t, u.tags.Add(fmt.Sprintf("t%d", rng.IntN(5))))
			case 3:
				require.NoError(t, u.tags.Remove(fmt.Sprintf("t%d", rng.IntN(5))))
			case 4:
				if u.path.Len() > 0 && rng.IntN(2) == 0 {
					require.NoError(t, u.path.RemoveAt(rng.IntN(u.path.Len())))
				} else {
					require.NoError(t, u.path.Insert(rng.IntN(u.path.Len()+1), rng.Uint32()))
				}
			case 5:
				require.NoError(t, u.hits.Set(fmt.Sprintf("k%d", rng.IntN(3)), rng.Int64N(1000)-500))
			}
		}
		if tick == 30 {
			spawn(3)
		}
		require.NoError(t, agg.Tick(ctx))
		require.NoError(t, hub.Flush(ctx))
	}

	for peer, c := range clients {
		for id, u := range hostUnits {
			if diff := cmp.Diff(u.state(), c.units[id].state(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("%s object %d mismatch (-host +client):\n%s", peer, id, diff)
			}
		}
	}

	// despawn drops whatever is still in flight
	prev := hostUnits[1].hp.Get()
	require.NoError(t, hostUnits[1].hp.Set((prev+1)%101))
	require.NoError(t, agg.Tick(ctx))
	require.NotZero(t, hub.Pending())
	for _, c := range clients {
		require.True(t, c.reg.Despawn(1))
	}
	require.NoError(t, hub.Flush(ctx))
	for _, c := range clients {
		require.Equal(t, prev, c.units[1].hp.Get())
	}
}

func TestReplicationDropsReorderedPayloads(t *testing.T) {
	ctx := context.Background()
	hub := transport.NewHub(transport.WithShuffle(9), transport.WithDuplicates(0.3))
	hostEP, err := hub.Join("host")
	require.NoError(t, err)
	clientEP, err := hub.Join("client")
	require.NoError(t, err)

	hostReg := NewRegistry()
	agg := NewAggregator(DefaultConfig(), hostEP, WithLogger(logtest.New(t)))
	hostReg.Subscribe(agg)
	hp := tracked.NewScalar(hpEntry, 0)
	require.NoError(t, hostReg.Spawn(NewObject(1).MustBind(0, hp)))
	require.NoError(t, agg.AddObserver(1, "client"))

	clientReg := NewRegistry()
	applier := NewApplier(DefaultConfig(), clientReg, WithLogger(logtest.New(t)))
	clientReg.Subscribe(applier)
	mirror := tracked.NewScalar(hpEntry, 0)
	var applied []int32
	mirror.OnChange(func(_, next int32) {
		applied = append(applied, next)
	})
	require.NoError(t, clientReg.Spawn(NewObject(1).MustBind(0, mirror)))
	clientEP.Receive(applier.HandlePayload)

	// every payload of the object is in one batch, so the hub reorders the
	// object's own stream
	const ticks = 20
	for i := range ticks {
		require.NoError(t, hp.Set(int32(i+1)))
		require.NoError(t, agg.Tick(ctx))
	}
	require.Equal(t, ticks, hub.Pending())
	require.NoError(t, hub.Flush(ctx))

	require.EqualValues(t, ticks, mirror.Get())
	last, ok := applier.LastApplied(1)
	require.True(t, ok)
	require.EqualValues(t, ticks, last)
	require.IsIncreasing(t, applied, "payloads older than the last applied one are dropped")
	require.Less(t, len(applied), ticks)
}
