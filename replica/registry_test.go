package replica

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-netstate/dispatch"
	"github.com/spacemeshos/go-netstate/log/logtest"
	"github.com/spacemeshos/go-netstate/tracked"
)

func TestObjectBind(t *testing.T) {
	obj := NewObject(1)
	require.NoError(t, obj.Bind(3, tracked.NewScalar(dispatch.Int32, 0)))
	require.NoError(t, obj.Bind(1, tracked.NewScalar(dispatch.Int32, 0)))
	require.ErrorIs(t, obj.Bind(3, tracked.NewScalar(dispatch.Int32, 0)), ErrFieldIndexCollision)
	require.Equal(t, []FieldIndex{1, 3}, obj.Indices())
	require.Equal(t, 2, obj.Len())

	_, ok := obj.Field(2)
	require.False(t, ok)

	require.Panics(t, func() {
		obj.MustBind(1, tracked.NewScalar(dispatch.Int32, 0))
	})
}

func TestRegistrySpawnDespawn(t *testing.T) {
	ctrl := gomock.NewController(t)
	listener := NewMockListener(ctrl)
	reg := NewRegistry(WithLogger(logtest.New(t)))
	reg.Subscribe(listener)

	obj := NewObject(7).MustBind(0, tracked.NewScalar(dispatch.Bool, false))
	gomock.InOrder(
		listener.EXPECT().Spawned(obj),
		listener.EXPECT().Despawned(ObjectID(7)),
	)
	require.NoError(t, reg.Spawn(obj))
	got, ok := reg.Get(7)
	require.True(t, ok)
	require.Same(t, obj, got)
	require.Equal(t, 1, reg.Len())

	require.ErrorIs(t, obj.Bind(1, tracked.NewScalar(dispatch.Bool, false)), ErrSpawned)

	require.True(t, reg.Despawn(7))
	require.False(t, reg.Despawn(7))
	_, ok = reg.Get(7)
	require.False(t, ok)
	require.Zero(t, reg.Len())
}

func TestRegistryRejectsReusedID(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Spawn(NewObject(1)))
	require.ErrorIs(t, reg.Spawn(NewObject(1)), ErrIDReused)
	require.True(t, reg.Despawn(1))
	require.ErrorIs(t, reg.Spawn(NewObject(1)), ErrIDReused, "ids are never reused")

	spawned := NewObject(2)
	require.NoError(t, reg.Spawn(spawned))
	other := NewRegistry()
	require.ErrorIs(t, other.Spawn(spawned), ErrSpawned)
	require.NoError(t, other.Spawn(NewObject(2)), "failed spawn does not burn the id")
}

func TestRegistryRange(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []ObjectID{9, 2, 5, 1} {
		require.NoError(t, reg.Spawn(NewObject(id)))
	}
	var ids []ObjectID
	reg.Range(func(obj *Object) bool {
		ids = append(ids, obj.ID())
		return true
	})
	require.Equal(t, []ObjectID{1, 2, 5, 9}, ids)

	ids = nil
	reg.Range(func(obj *Object) bool {
		ids = append(ids, obj.ID())
		return len(ids) < 2
	})
	require.Equal(t, []ObjectID{1, 2}, ids)
}
