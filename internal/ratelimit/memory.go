package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepThreshold = 10000

// MemoryLimiter keeps limits in process: a token bucket refilled at
// perMinute/60 per second, plus a UTC-day counter.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	bucket    *rate.Limiter
	perMinute int
	day       string
	dayCount  int
	lastSeen  time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{entries: make(map[string]*memoryEntry), now: time.Now}
}

// Allow checks and consumes one request for key
func (l *MemoryLimiter) Allow(_ context.Context, key string, perMinute, perDay int) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	day := now.UTC().Format("20060102")

	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= sweepThreshold {
			l.sweep(now)
		}
		entry = &memoryEntry{}
		l.entries[key] = entry
	}
	if entry.bucket == nil || entry.perMinute != perMinute {
		entry.bucket = newBucket(perMinute)
		entry.perMinute = perMinute
	}
	if entry.day != day {
		entry.day = day
		entry.dayCount = 0
	}
	entry.lastSeen = now

	if perDay > 0 && entry.dayCount >= perDay {
		return Decision{Window: WindowDay, RetryAfter: untilNextDay(now)}
	}
	if !entry.bucket.AllowN(now, 1) {
		return Decision{Window: WindowMinute, RetryAfter: untilNextMinute(now)}
	}
	entry.dayCount++
	return Decision{Allowed: true}
}

func newBucket(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
}

// sweep drops keys idle for a day; caller holds mu
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > 24*time.Hour {
			delete(l.entries, key)
		}
	}
}
