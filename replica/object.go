package replica

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// ObjectID is assigned when an object is spawned and is never reused within
// a session.
type ObjectID uint32

// FieldIndex identifies a field within an object. Host and receivers must
// bind the same fields under the same indices.
type FieldIndex uint32

// Object is a set of fields replicated as a unit.
type Object struct {
	id      ObjectID
	fields  map[FieldIndex]Field
	order   []FieldIndex
	sync    SyncSettings
	spawned atomic.Bool
}

func NewObject(id ObjectID) *Object {
	return &Object{id: id, fields: make(map[FieldIndex]Field)}
}

// Bind adds a field under index. It must be called before the object is
// spawned.
func (o *Object) Bind(index FieldIndex, f Field) error {
	if o.spawned.Load() {
		return fmt.Errorf("%w: bind field %d to object %d", ErrSpawned, index, o.id)
	}
	if _, ok := o.fields[index]; ok {
		return fmt.Errorf("%w: object %d field %d", ErrFieldIndexCollision, o.id, index)
	}
	o.fields[index] = f
	i, _ := slices.BinarySearch(o.order, index)
	o.order = slices.Insert(o.order, i, index)
	return nil
}

// MustBind is Bind for static object layouts. It panics on error.
func (o *Object) MustBind(index FieldIndex, f Field) *Object {
	if err := o.Bind(index, f); err != nil {
		panic(err)
	}
	return o
}

// WithSync limits how often the host sends changes of the object. It must
// be called before the object is spawned.
func (o *Object) WithSync(s SyncSettings) *Object {
	if o.spawned.Load() {
		panic(fmt.Sprintf("BUG: sync settings changed after object %d was spawned", o.id))
	}
	o.sync = s
	return o
}

func (o *Object) Sync() SyncSettings { return o.sync }

func (o *Object) ID() ObjectID { return o.id }

func (o *Object) Field(index FieldIndex) (Field, bool) {
	f, ok := o.fields[index]
	return f, ok
}

// Indices returns field indices in ascending order.
func (o *Object) Indices() []FieldIndex {
	return slices.Clone(o.order)
}

func (o *Object) Len() int { return len(o.order) }
