package cache

import (
	"context"
	"sync"
)

// FetchFunc produces the authoritative value for a tag.
type FetchFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	value interface{}
	valid bool
}

type flight struct {
	done  chan struct{}
	value interface{}
	err   error
}

// Cache is a tag-keyed store of fetched results. Reads are de-duplicated so
// at most one fetch per tag is in flight at a time. Invalidation marks the
// entry stale and notifies subscribers; entries with no subscriber are
// dropped and refetched lazily on the next read. Invalidating an absent or
// already-stale tag is a no-op.
type Cache struct {
	mu       sync.Mutex
	entries  map[Tag]*entry
	inflight map[Tag]*flight
	gen      map[Tag]uint64
	subs     map[Tag]map[int]func(Tag)
	nextSub  int
}

func New() *Cache {
	return &Cache{
		entries:  make(map[Tag]*entry),
		inflight: make(map[Tag]*flight),
		gen:      make(map[Tag]uint64),
		subs:     make(map[Tag]map[int]func(Tag)),
	}
}

// Read returns the cached value for the tag, or runs fetch to populate it.
// Concurrent readers of the same tag share a single fetch.
func (c *Cache) Read(ctx context.Context, tag Tag, fetch FetchFunc) (interface{}, error) {
	c.mu.Lock()

	if e, ok := c.entries[tag]; ok && e.valid {
		value := e.value
		c.mu.Unlock()
		return value, nil
	}

	if f, ok := c.inflight[tag]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.value, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	c.inflight[tag] = f
	startGen := c.gen[tag]
	c.mu.Unlock()

	value, err := fetch(ctx)

	c.mu.Lock()
	delete(c.inflight, tag)
	if err == nil {
		// A concurrent invalidation wins over the result of a fetch that
		// started before it; the next read refetches.
		c.entries[tag] = &entry{value: value, valid: c.gen[tag] == startGen}
	}
	c.mu.Unlock()

	f.value = value
	f.err = err
	close(f.done)

	return value, err
}

// Invalidate marks the given tags stale. Subscribed tags keep their entry
// (stale) and have their subscribers notified to refetch; unsubscribed tags
// are simply dropped.
func (c *Cache) Invalidate(tags ...Tag) {
	var notify []func(Tag)
	var notifyTags []Tag

	c.mu.Lock()
	for _, tag := range tags {
		c.gen[tag]++

		subs := c.subs[tag]
		if len(subs) == 0 {
			delete(c.entries, tag)
			continue
		}

		if e, ok := c.entries[tag]; ok {
			e.valid = false
		}
		for _, fn := range subs {
			notify = append(notify, fn)
			notifyTags = append(notifyTags, tag)
		}
	}
	c.mu.Unlock()

	for i, fn := range notify {
		fn(notifyTags[i])
	}
}

// Subscription is a stable handle for one subscriber of one tag. Closing it
// detaches the callback; a closed subscription never fires again.
type Subscription struct {
	cache *Cache
	tag   Tag
	id    int
	once  sync.Once
}

// Subscribe registers a callback fired whenever the tag is invalidated.
func (c *Cache) Subscribe(tag Tag, fn func(Tag)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	id := c.nextSub
	if c.subs[tag] == nil {
		c.subs[tag] = make(map[int]func(Tag))
	}
	c.subs[tag][id] = fn

	return &Subscription{cache: c, tag: tag, id: id}
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cache.mu.Lock()
		defer s.cache.mu.Unlock()

		if subs, ok := s.cache.subs[s.tag]; ok {
			delete(subs, s.id)
			if len(subs) == 0 {
				delete(s.cache.subs, s.tag)
			}
		}
	})
}
