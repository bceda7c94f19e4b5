package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/spacemeshos/go-netstate/bitio"
	"github.com/spacemeshos/go-netstate/dispatch"
	"github.com/spacemeshos/go-netstate/replica"
	"github.com/spacemeshos/go-netstate/tracked"
)

// Keys of the entries registered by newTable.
const (
	keyCoord    dispatch.Key = "coord"
	keyHealth   dispatch.Key = "health"
	keyFacing   dispatch.Key = "facing"
	keyGold     dispatch.Key = "gold"
	keyLoadout  dispatch.Key = "loadout"
	keyWaypoint dispatch.Key = "waypoint"
)

// Loadout is replicated as one msgpack value.
type Loadout struct {
	Weapon string `msgpack:"w"`
	Armor  string `msgpack:"a"`
	Level  uint8  `msgpack:"l"`
}

var schema = []dispatch.Key{
	keyCoord, keyHealth, keyFacing, keyGold, keyLoadout, keyWaypoint,
	dispatch.KeyString, dispatch.KeyUint16,
}

func newTable(opts ...dispatch.Opt) (*dispatch.Table, error) {
	coord, err := dispatch.QuantizedPrecision[float32](keyCoord, -1024, 1024, 0.01)
	if err != nil {
		return nil, err
	}
	facing, err := dispatch.Rotation(keyFacing, 9)
	if err != nil {
		return nil, err
	}
	gold, err := dispatch.Tiers(keyGold, 7, 14, 32)
	if err != nil {
		return nil, err
	}
	waypoint, err := dispatch.Blocks(keyWaypoint, 6)
	if err != nil {
		return nil, err
	}
	table := dispatch.New(opts...)
	for _, e := range []dispatch.AnyEntry{
		coord,
		facing,
		gold,
		waypoint,
		dispatch.Bounded[int32](keyHealth, 0, 1000),
		dispatch.Msgpack[Loadout](keyLoadout, 256),
	} {
		if err := table.Register(e); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Field indices of a unit object.
const (
	fieldX replica.FieldIndex = iota
	fieldY
	fieldHealth
	fieldFacing
	fieldGold
	fieldName
	fieldLoadout
	fieldTags
	fieldPath
	fieldStash
	fieldTrail
)

type unit struct {
	coord   dispatch.Entry[float32]
	rot     dispatch.Entry[bitio.Quaternion]
	x       *tracked.Scalar[float32]
	y       *tracked.Scalar[float32]
	health  *tracked.Scalar[int32]
	facing  *tracked.Scalar[bitio.Quaternion]
	gold    *tracked.Scalar[uint64]
	name    *tracked.Scalar[string]
	loadout *tracked.Scalar[Loadout]
	tags    *tracked.Set[string]
	path    *tracked.List[uint64]
	stash   *tracked.Map[string, uint16]
	trail   *tracked.Stack[uint64]
}

// snap returns v as a receiver decodes it, so that lossy entries hold the
// same value on both sides.
func snap[T any](e dispatch.Entry[T], v T) (T, error) {
	w := bitio.GetWriter()
	defer bitio.PutWriter(w)
	if err := e.Write(w, v); err != nil {
		return v, err
	}
	return e.Read(bitio.NewReader(w.Bytes()))
}

func setSnapped[T comparable](s *tracked.Scalar[T], e dispatch.Entry[T], v T) error {
	v, err := snap(e, v)
	if err != nil {
		return err
	}
	return s.Set(v)
}

func lookup[T any](table *dispatch.Table, key dispatch.Key) dispatch.Entry[T] {
	e, err := dispatch.Lookup[T](table, key)
	if err != nil {
		panic(fmt.Sprintf("BUG: validated key %q: %v", key, err))
	}
	return e
}

// newUnit binds a unit to the entries of a validated table.
func newUnit(table *dispatch.Table) *unit {
	coord := lookup[float32](table, keyCoord)
	rot := lookup[bitio.Quaternion](table, keyFacing)
	return &unit{
		coord:   coord,
		rot:     rot,
		x:       tracked.NewScalar(coord, 0),
		y:       tracked.NewScalar(coord, 0),
		health:  tracked.NewScalar(lookup[int32](table, keyHealth), 1000),
		facing:  tracked.NewScalar(rot, bitio.Quaternion{W: 1}),
		gold:    tracked.NewScalar(lookup[uint64](table, keyGold), 0),
		name:    tracked.NewScalar(lookup[string](table, dispatch.KeyString), ""),
		loadout: tracked.NewScalar(lookup[Loadout](table, keyLoadout), Loadout{}),
		tags:    tracked.NewSet(lookup[string](table, dispatch.KeyString)),
		path:    tracked.NewList(lookup[uint64](table, keyWaypoint), tracked.WithLimit(64)),
		stash:   tracked.NewMap(lookup[string](table, dispatch.KeyString), lookup[uint16](table, dispatch.KeyUint16)),
		trail:   tracked.NewStack(lookup[uint64](table, keyWaypoint), tracked.WithLimit(64)),
	}
}

func (u *unit) object(id replica.ObjectID, sync replica.SyncSettings) *replica.Object {
	return replica.NewObject(id).
		WithSync(sync).
		MustBind(fieldX, u.x).
		MustBind(fieldY, u.y).
		MustBind(fieldHealth, u.health).
		MustBind(fieldFacing, u.facing).
		MustBind(fieldGold, u.gold).
		MustBind(fieldName, u.name).
		MustBind(fieldLoadout, u.loadout).
		MustBind(fieldTags, u.tags).
		MustBind(fieldPath, u.path).
		MustBind(fieldStash, u.stash).
		MustBind(fieldTrail, u.trail)
}

var (
	weapons = []string{"sword", "bow", "staff", "axe"}
	armors  = []string{"cloth", "leather", "plate"}
	tags    = []string{"stunned", "burning", "hidden", "hasted", "shielded"}
	items   = []string{"potion", "arrow", "scroll"}
)

// mutate applies one random change to u.
func (u *unit) mutate(rng *rand.Rand) error {
	switch rng.IntN(11) {
	case 0:
		return setSnapped(u.x, u.coord, float32(rng.Float64()*2048-1024))
	case 1:
		return setSnapped(u.y, u.coord, float32(rng.Float64()*2048-1024))
	case 2:
		return u.health.Set(rng.Int32N(1001))
	case 3:
		half := rng.Float64() * math.Pi
		return setSnapped(u.facing, u.rot, bitio.Quaternion{Z: float32(math.Sin(half)), W: float32(math.Cos(half))})
	case 4:
		return u.gold.Set(rng.Uint64N(1 << 20))
	case 5:
		return u.loadout.Set(Loadout{
			Weapon: weapons[rng.IntN(len(weapons))],
			Armor:  armors[rng.IntN(len(armors))],
			Level:  uint8(rng.IntN(100)),
		})
	case 6:
		tag := tags[rng.IntN(len(tags))]
		if u.tags.Contains(tag) {
			return u.tags.Remove(tag)
		}
		return u.tags.Add(tag)
	case 7:
		if n := u.path.Len(); n > 8 || (n > 0 && rng.IntN(3) == 0) {
			return u.path.RemoveAt(0)
		}
		return u.path.Add(rng.Uint64N(1 << 24))
	case 8:
		item := items[rng.IntN(len(items))]
		if rng.IntN(4) == 0 {
			return u.stash.Remove(item)
		}
		return u.stash.Set(item, uint16(rng.IntN(100)))
	case 9:
		if n := u.trail.Len(); n > 16 || (n > 0 && rng.IntN(2) == 0) {
			_, err := u.trail.Pop()
			return err
		}
		return u.trail.Push(rng.Uint64N(1 << 24))
	default:
		return u.name.Set(fmt.Sprintf("unit-%d", rng.IntN(1000)))
	}
}
