package store

import (
	"sync"

	"github.com/google/uuid"
)

// Hub fans change notifications out to subscribers. Each notification is
// delivered on its own goroutine; no ordering between notifications and
// local mutations is promised.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]ChangeFunc
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]ChangeFunc)}
}

// Subscribe registers fn and returns its handle.
func (h *Hub) Subscribe(fn ChangeFunc) *Subscription {
	id := uuid.NewString()
	h.mu.Lock()
	h.subs[id] = fn
	h.mu.Unlock()
	return &Subscription{hub: h, id: id}
}

// Publish notifies all current subscribers of a change.
func (h *Hub) Publish(room string, kind ChangeKind) {
	h.mu.RLock()
	fns := make([]ChangeFunc, 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		go fn(room, kind)
	}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Subscription is a handle to an active change subscription.
type Subscription struct {
	hub  *Hub
	id   string
	once sync.Once
}

// Close stops delivery. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
