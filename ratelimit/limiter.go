// Package ratelimit provides keyed token-bucket limiting. Storehook uses it
// to cap operator test-sends per endpoint.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. A bucket holds up to limit tokens
// and refills limit tokens per window.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	buckets map[string]*bucket
}

type bucket struct {
	limit   int
	limiter *rate.Limiter
}

// New creates a limiter whose limits are expressed per window.
// A non-positive window means per second.
func New(window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		window:  window,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether key may proceed now, consuming a token if so.
// A limit of 0 means unlimited.
func (l *Limiter) Allow(key string, limit int) bool {
	if limit <= 0 {
		return true
	}
	return l.get(key, limit).Allow()
}

// Wait blocks until key may proceed or ctx is done.
// A limit of 0 means unlimited (returns immediately).
func (l *Limiter) Wait(ctx context.Context, key string, limit int) error {
	if limit <= 0 {
		return nil
	}
	return l.get(key, limit).Wait(ctx)
}

// Reset clears the state for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// get returns the bucket for key, rebuilding it when the limit changed.
func (l *Limiter) get(key string, limit int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || b.limit != limit {
		every := rate.Every(l.window / time.Duration(limit))
		b = &bucket{
			limit:   limit,
			limiter: rate.NewLimiter(every, limit), // starts full
		}
		l.buckets[key] = b
	}
	return b.limiter
}
