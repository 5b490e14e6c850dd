package webhook

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window limiter keyed by caller. Expired windows are
// swept lazily so idle callers do not accumulate.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*window
	swept   time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func newRateLimiter(limit int, w time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  w,
		now:     time.Now,
		buckets: make(map[string]*window),
	}
}

// Allow reports whether key may make another request in the current window.
// A limiter with a non-positive limit allows everything.
func (r *rateLimiter) Allow(key string) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.swept) > r.window {
		for k, b := range r.buckets {
			if now.After(b.resetAt) {
				delete(r.buckets, k)
			}
		}
		r.swept = now
	}

	b, ok := r.buckets[key]
	if !ok || now.After(b.resetAt) {
		r.buckets[key] = &window{count: 1, resetAt: now.Add(r.window)}
		return true
	}
	if b.count >= r.limit {
		return false
	}
	b.count++
	return true
}
