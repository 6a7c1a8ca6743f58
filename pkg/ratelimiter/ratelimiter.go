package ratelimiter

import (
	"sync"
	"time"
)

// Policy caps the number of hits a client may make within a sliding window
type Policy struct {
	Limit  int
	Window time.Duration
}

// Limiter is an in-memory sliding-window limiter. Hits are bucketed by
// namespace (one per protected endpoint) and then by client key, usually
// the remote IP.
//
//	rl := ratelimiter.New()
//	rl.SetPolicy("auth.login", 20, time.Minute)
//	if !rl.Allow("auth.login", ip) { ... }
type Limiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	hits     map[string]map[string][]time.Time
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Limiter and starts a goroutine that forgets idle clients
// once a minute. Call Stop to end it.
func New() *Limiter {
	rl := &Limiter{
		policies: make(map[string]Policy),
		hits:     make(map[string]map[string][]time.Time),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.janitor(time.Minute)
	return rl
}

// SetPolicy installs or replaces the policy of a namespace
func (rl *Limiter) SetPolicy(namespace string, limit int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.policies[namespace] = Policy{Limit: limit, Window: window}
	if _, ok := rl.hits[namespace]; !ok {
		rl.hits[namespace] = make(map[string][]time.Time)
	}
}

// Allow records a hit for key and reports whether it is within the limit.
// Namespaces without a policy are denied.
func (rl *Limiter) Allow(namespace, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return false
	}

	now := rl.now()
	recent := prune(rl.hits[namespace][key], now.Add(-policy.Window))
	if len(recent) >= policy.Limit {
		rl.hits[namespace][key] = recent
		return false
	}

	rl.hits[namespace][key] = append(recent, now)
	return true
}

// RetryAfter is how long key must wait before its oldest counted hit
// leaves the window. Zero means the key may retry now.
func (rl *Limiter) RetryAfter(namespace, key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return 0
	}

	now := rl.now()
	recent := prune(rl.hits[namespace][key], now.Add(-policy.Window))
	if len(recent) < policy.Limit || len(recent) == 0 {
		return 0
	}

	wait := recent[0].Add(policy.Window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Reset forgets every hit recorded for key
func (rl *Limiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if keys, ok := rl.hits[namespace]; ok {
		delete(keys, key)
	}
}

// Stop ends the background goroutine. Safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// prune drops hits at or before cutoff. hits are kept in ascending order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

func (rl *Limiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.forgetIdle()
		case <-rl.done:
			return
		}
	}
}

func (rl *Limiter) forgetIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for namespace, keys := range rl.hits {
		policy, ok := rl.policies[namespace]
		if !ok {
			delete(rl.hits, namespace)
			continue
		}
		cutoff := now.Add(-policy.Window)
		for key, hits := range keys {
			if len(prune(hits, cutoff)) == 0 {
				delete(keys, key)
			}
		}
	}
}
