package replica

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-netstate/log"
)

// Registry maps ids to spawned objects. Lookups are lock-free; spawn and
// despawn are serialized so that listeners observe them in order.
type Registry struct {
	logger  *zap.Logger
	objects *xsync.MapOf[ObjectID, *Object]
	used    *xsync.MapOf[ObjectID, struct{}]

	mu        sync.Mutex
	listeners []Listener
}

func NewRegistry(opts ...Opt) *Registry {
	o := newOptions(opts)
	return &Registry{
		logger:  o.logger,
		objects: xsync.NewMapOf[ObjectID, *Object](),
		used:    xsync.NewMapOf[ObjectID, struct{}](),
	}
}

// Subscribe adds a listener for spawn and despawn events.
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Spawn makes obj visible and notifies listeners. An id can be spawned once
// per registry, even after it was despawned.
func (r *Registry) Spawn(obj *Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, loaded := r.used.LoadOrStore(obj.ID(), struct{}{}); loaded {
		return fmt.Errorf("%w: %d", ErrIDReused, obj.ID())
	}
	if !obj.spawned.CompareAndSwap(false, true) {
		r.used.Delete(obj.ID())
		return fmt.Errorf("%w: object %d", ErrSpawned, obj.ID())
	}
	r.objects.Store(obj.ID(), obj)
	spawnedObjects.Inc()
	r.logger.Debug("spawned", log.ObjectID(uint32(obj.ID())), zap.Int("fields", obj.Len()))
	for _, l := range r.listeners {
		l.Spawned(obj)
	}
	return nil
}

// Despawn removes the object and notifies listeners. It reports whether the
// object was spawned.
func (r *Registry) Despawn(id ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects.LoadAndDelete(id); !ok {
		return false
	}
	spawnedObjects.Dec()
	r.logger.Debug("despawned", log.ObjectID(uint32(id)))
	for _, l := range r.listeners {
		l.Despawned(id)
	}
	return true
}

func (r *Registry) Get(id ObjectID) (*Object, bool) {
	return r.objects.Load(id)
}

func (r *Registry) Len() int {
	return r.objects.Size()
}

// Range calls fn for every spawned object in ascending id order until fn
// returns false.
func (r *Registry) Range(fn func(*Object) bool) {
	objs := make([]*Object, 0, r.objects.Size())
	r.objects.Range(func(_ ObjectID, obj *Object) bool {
		objs = append(objs, obj)
		return true
	})
	slices.SortFunc(objs, func(a, b *Object) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	for _, obj := range objs {
		if !fn(obj) {
			return
		}
	}
}
