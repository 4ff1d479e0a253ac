package docstore

import (
	"sync"

	"tally/internal/core"
)

// Subscription delivers full record snapshots for one collection. Updates
// carries at most one pending snapshot; a newer one replaces an unread one,
// so a slow consumer always sees the latest state.
type Subscription struct {
	updates chan []core.Record
	cancel  func()
	once    sync.Once
}

// Updates is the snapshot channel. It is closed when the subscription is
// cancelled or the hub shuts down.
func (s *Subscription) Updates() <-chan []core.Record {
	return s.updates
}

// Cancel tears the subscription down. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Hub fans record snapshots out to per-collection subscribers. Backends
// publish the post-mutation snapshot; the hub owns delivery.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[int]*Subscription
	nextID int
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]*Subscription)}
}

func (h *Hub) Subscribe(path CollectionPath) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{updates: make(chan []core.Record, 1)}
	if h.closed {
		close(sub.updates)
		sub.cancel = func() {}
		return sub
	}

	key := path.String()
	id := h.nextID
	h.nextID++
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]*Subscription)
	}
	h.subs[key][id] = sub
	sub.cancel = func() { h.remove(key, id) }
	return sub
}

func (h *Hub) remove(key string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if sub, ok := h.subs[key][id]; ok {
		delete(h.subs[key], id)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
		close(sub.updates)
	}
}

// Publish delivers a snapshot to every subscriber of the collection,
// replacing any snapshot they have not consumed yet.
func (h *Hub) Publish(path CollectionPath, snapshot []core.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs[path.String()] {
		// Drain a stale pending snapshot before offering the new one.
		select {
		case <-sub.updates:
		default:
		}
		sub.updates <- snapshot
	}
}

// Close shuts the hub down and closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, bySub := range h.subs {
		for _, sub := range bySub {
			close(sub.updates)
		}
	}
	h.subs = nil
}
