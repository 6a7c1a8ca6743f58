package cache

import (
	"sync"
	"time"
)

// Store is a short-lived key/value store with per-entry expiry.
// The OAuth flow keeps pending login states in it.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	// Take returns the value and removes it in the same step, so a key
	// can be redeemed at most once
	Take(key string) (V, bool)
	Delete(key string)
	Len() int
	Stop()
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// TTLCache is an in-memory Store guarded by a mutex. A janitor goroutine
// evicts expired entries every sweepEvery.
type TTLCache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	now        func() time.Time
	sweepEvery time.Duration
	done       chan struct{}
	stopOnce   sync.Once
}

// New starts a TTLCache. sweepEvery <= 0 disables the janitor; expired
// entries are then only dropped on access.
func New[V any](sweepEvery time.Duration) *TTLCache[V] {
	c := &TTLCache[V]{
		entries:    make(map[string]entry[V]),
		now:        time.Now,
		sweepEvery: sweepEvery,
		done:       make(chan struct{}),
	}

	if sweepEvery > 0 {
		go c.janitor()
	}

	return c
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lookup(key)
}

func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *TTLCache[V]) Take(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lookup(key)
	delete(c.entries, key)
	return v, ok
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len counts entries still held, including expired ones the janitor has not reached yet
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stop ends the janitor. It is safe to call more than once.
func (c *TTLCache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// lookup must be called with mu held
func (c *TTLCache[V]) lookup(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[V]) janitor() {
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *TTLCache[V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}
