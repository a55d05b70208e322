// Package ratelimit enforces the per-key request limits of the public API
// and throttles dashboard logins.
package ratelimit

import (
	"context"
	"time"
)

// Windows
const (
	WindowMinute = "minute"
	WindowDay    = "day"
)

// Decision is the result of a limit check
type Decision struct {
	Allowed    bool
	Window     string
	RetryAfter time.Duration
}

// Limiter counts requests per key against a per-minute and a per-day limit.
// A limit <= 0 means unlimited. Backend failures allow the request.
type Limiter interface {
	Allow(ctx context.Context, key string, perMinute, perDay int) Decision
}

// Noop never limits
type Noop struct{}

// Allow always allows
func (Noop) Allow(context.Context, string, int, int) Decision {
	return Decision{Allowed: true}
}

func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

func untilNextDay(now time.Time) time.Duration {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Sub(now)
}
