package cache

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds one Cache per user. Mutations invalidate through it so the
// views of every affected user converge on the next refetch.
type Registry struct {
	mu     sync.RWMutex
	caches map[uuid.UUID]*Cache
}

func NewRegistry() *Registry {
	return &Registry{caches: make(map[uuid.UUID]*Cache)}
}

// For returns the user's cache, creating it on first use.
func (r *Registry) For(userID uuid.UUID) *Cache {
	r.mu.RLock()
	c, ok := r.caches[userID]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.caches[userID]; ok {
		return c
	}
	c = New()
	r.caches[userID] = c
	return c
}

// Invalidate is a no-op for users with no cache yet; they fetch fresh data
// anyway.
func (r *Registry) Invalidate(userID uuid.UUID, tags ...Tag) {
	r.mu.RLock()
	c, ok := r.caches[userID]
	r.mu.RUnlock()
	if ok {
		c.Invalidate(tags...)
	}
}

func (r *Registry) Drop(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, userID)
}
