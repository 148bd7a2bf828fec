// Package feed fans out record changes to live subscribers, keyed by owner
// and collection.
package feed

import (
	"log/slog"
	"sync"
)

// Collection names a subscribable set of records.
type Collection string

const (
	CollectionBills  Collection = "bills"
	CollectionBudget Collection = "budget"
)

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return c == CollectionBills || c == CollectionBudget
}

// ChangeType describes what happened to a record.
type ChangeType string

const (
	ChangeUpsert ChangeType = "upsert"
	ChangeDelete ChangeType = "delete"
)

// Change is a single record delta. Record holds the new value for upserts
// and is nil for deletes.
type Change struct {
	Collection Collection
	Type       ChangeType
	ID         string
	Record     any
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

type key struct {
	owner      string
	collection Collection
}

// Hub is an in-process publish/subscribe point. The zero value is not
// usable; create one with NewHub.
type Hub struct {
	mu     sync.Mutex
	subs   map[key]map[*Subscription]struct{}
	buffer int
}

// NewHub creates a hub whose subscriptions buffer up to buffer changes.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[key]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscription receives changes for one owner and collection until closed.
type Subscription struct {
	hub    *Hub
	key    key
	ch     chan Change
	once   sync.Once
	lagged bool
}

// C returns the channel of changes. It is closed when the subscription ends,
// either through Close or because the subscriber fell behind.
func (s *Subscription) C() <-chan Change {
	return s.ch
}

// Lagged reports whether the subscription was dropped for falling behind.
// Only meaningful after C has been closed.
func (s *Subscription) Lagged() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.lagged
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s)
}

// Subscribe registers interest in one owner's collection.
func (h *Hub) Subscribe(owner string, c Collection) *Subscription {
	sub := &Subscription{
		hub: h,
		key: key{owner: owner, collection: c},
		ch:  make(chan Change, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.key]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sub.key] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers a change to every subscriber of the owner's collection.
// It never blocks: a subscriber with a full buffer is dropped and must
// resubscribe to get a fresh snapshot.
func (h *Hub) Publish(owner string, change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[key{owner: owner, collection: change.Collection}] {
		select {
		case sub.ch <- change:
		default:
			slog.Warn("Dropping lagging subscriber",
				"owner", owner,
				"collection", change.Collection,
			)
			sub.lagged = true
			h.removeLocked(sub)
		}
	}
}

// Subscribers returns the number of live subscriptions for an owner's collection.
func (h *Hub) Subscribers(owner string, c Collection) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key{owner: owner, collection: c}])
}

func (h *Hub) removeLocked(sub *Subscription) {
	sub.once.Do(func() {
		set := h.subs[sub.key]
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.key)
		}
		close(sub.ch)
	})
}
