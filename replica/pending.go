package replica

import (
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type pendingPayload struct {
	payload  *Payload
	received time.Time
}

// pendingQueue holds payloads of one unknown object ordered by seq.
type pendingQueue struct {
	items []pendingPayload
}

// add inserts in seq order and keeps at most limit payloads, dropping the
// oldest. Duplicate seqs are ignored. It returns the number of dropped
// payloads.
func (q *pendingQueue) add(p pendingPayload, limit int) int {
	i, found := slices.BinarySearchFunc(q.items, p.payload.Seq, func(item pendingPayload, seq uint64) int {
		switch {
		case item.payload.Seq < seq:
			return -1
		case item.payload.Seq > seq:
			return 1
		}
		return 0
	})
	if found {
		return 1
	}
	q.items = slices.Insert(q.items, i, p)
	dropped := 0
	for len(q.items) > limit {
		q.items = q.items[1:]
		dropped++
	}
	return dropped
}

// expire drops payloads received before deadline.
func (q *pendingQueue) expire(deadline time.Time) int {
	n := len(q.items)
	q.items = slices.DeleteFunc(q.items, func(p pendingPayload) bool {
		return p.received.Before(deadline)
	})
	return n - len(q.items)
}

// pendingBuffer holds payloads for objects that are not spawned yet. The
// number of objects is bounded by an LRU, the age of payloads by the grace
// window.
type pendingBuffer struct {
	cfg    Config
	queues *lru.Cache[ObjectID, *pendingQueue]
}

func newPendingBuffer(cfg Config) *pendingBuffer {
	queues, err := lru.NewWithEvict(cfg.PendingLimit, func(_ ObjectID, q *pendingQueue) {
		evictedPayloads.Add(float64(len(q.items)))
	})
	if err != nil {
		panic("BUG: pending limit must be positive: " + err.Error())
	}
	return &pendingBuffer{cfg: cfg, queues: queues}
}

func (b *pendingBuffer) add(p *Payload, now time.Time) {
	q, ok := b.queues.Get(p.Object)
	if !ok {
		q = &pendingQueue{}
		b.queues.Add(p.Object, q)
	}
	if dropped := q.add(pendingPayload{payload: p, received: now}, b.cfg.PendingPerObject); dropped > 0 {
		evictedPayloads.Add(float64(dropped))
	}
	pendingObjects.Set(float64(b.queues.Len()))
}

// take removes and returns the unexpired payloads of id in seq order.
func (b *pendingBuffer) take(id ObjectID, now time.Time) []*Payload {
	q, ok := b.queues.Peek(id)
	if !ok {
		return nil
	}
	if n := q.expire(now.Add(-b.cfg.PendingGrace)); n > 0 {
		expiredPayloads.Add(float64(n))
	}
	out := make([]*Payload, 0, len(q.items))
	for _, item := range q.items {
		out = append(out, item.payload)
	}
	// emptied first, removal runs the eviction callback
	q.items = nil
	b.queues.Remove(id)
	pendingObjects.Set(float64(b.queues.Len()))
	return out
}

// drop discards everything buffered for id without counting it as evicted.
func (b *pendingBuffer) drop(id ObjectID) int {
	q, ok := b.queues.Peek(id)
	if !ok {
		return 0
	}
	n := len(q.items)
	q.items = nil
	b.queues.Remove(id)
	pendingObjects.Set(float64(b.queues.Len()))
	return n
}

// sweep drops expired payloads and empty queues.
func (b *pendingBuffer) sweep(now time.Time) int {
	deadline := now.Add(-b.cfg.PendingGrace)
	total := 0
	for _, id := range b.queues.Keys() {
		q, ok := b.queues.Peek(id)
		if !ok {
			continue
		}
		total += q.expire(deadline)
		if len(q.items) == 0 {
			b.queues.Remove(id)
		}
	}
	if total > 0 {
		expiredPayloads.Add(float64(total))
	}
	pendingObjects.Set(float64(b.queues.Len()))
	return total
}

func (b *pendingBuffer) len(id ObjectID) int {
	q, ok := b.queues.Peek(id)
	if !ok {
		return 0
	}
	return len(q.items)
}
