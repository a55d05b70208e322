package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Login throttling policy
const (
	LoginMaxAttempts = 5
	LoginWindow      = 5 * time.Minute
	LoginBlock       = 15 * time.Minute
)

// LoginRateLimiter limits login attempts per ip+email
type LoginRateLimiter struct {
	attempts map[string]*loginAttempt
	mu       sync.Mutex
	now      func() time.Time
}

type loginAttempt struct {
	count     int
	firstTry  time.Time
	blockedAt *time.Time
}

// NewLoginRateLimiter creates a login limiter
func NewLoginRateLimiter() *LoginRateLimiter {
	return &LoginRateLimiter{
		attempts: make(map[string]*loginAttempt),
		now:      time.Now,
	}
}

// Allow records an attempt and reports whether it may proceed, the attempts
// left in the window and how long a blocked caller must wait.
func (rl *LoginRateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	attempt, exists := rl.attempts[key]

	if !exists {
		rl.attempts[key] = &loginAttempt{count: 1, firstTry: now}
		return true, LoginMaxAttempts - 1, 0
	}

	if attempt.blockedAt != nil {
		if elapsed := now.Sub(*attempt.blockedAt); elapsed < LoginBlock {
			return false, 0, LoginBlock - elapsed
		}
		attempt.count = 1
		attempt.firstTry = now
		attempt.blockedAt = nil
		return true, LoginMaxAttempts - 1, 0
	}

	if now.Sub(attempt.firstTry) > LoginWindow {
		attempt.count = 1
		attempt.firstTry = now
		return true, LoginMaxAttempts - 1, 0
	}

	attempt.count++
	if attempt.count > LoginMaxAttempts {
		attempt.blockedAt = &now
		return false, 0, LoginBlock
	}
	return true, LoginMaxAttempts - attempt.count, 0
}

// Reset forgets a key after a successful login
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

// Run drops stale entries every interval until ctx is done
func (rl *LoginRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *LoginRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, attempt := range rl.attempts {
		if now.Sub(attempt.firstTry) > LoginWindow+LoginBlock {
			delete(rl.attempts, key)
		}
	}
}
