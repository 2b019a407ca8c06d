// Package ratelimit throttles actions per identity.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether an action for key may proceed now.
type Limiter interface {
	Allow(key int) bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed is an in-process token bucket per key. It is safe for concurrent use.
type Keyed struct {
	mu      sync.Mutex
	buckets map[int]*bucket
	every   time.Duration
	burst   int
	now     func() time.Time
}

// NewKeyed allows burst actions per key, refilling one token every interval.
func NewKeyed(every time.Duration, burst int) *Keyed {
	return &Keyed{
		buckets: make(map[int]*bucket),
		every:   every,
		burst:   burst,
		now:     time.Now,
	}
}

func (k *Keyed) Allow(key int) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(k.every), k.burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Prune drops buckets idle for longer than idle and returns how many were removed.
func (k *Keyed) Prune(idle time.Duration) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-idle)
	removed := 0
	for key, b := range k.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(k.buckets, key)
			removed++
		}
	}
	return removed
}

func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
