package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter keeps fixed-window counters in redis so every replica shares them
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRedisLimiter creates a redis-backed limiter
func NewRedisLimiter(client redis.Cmdable, logger *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: "foxops:ratelimit:",
		logger:    logger,
		now:       time.Now,
	}
}

// Allow increments both windows in one round trip. A rejected request does
// not count against the daily quota.
func (l *RedisLimiter) Allow(ctx context.Context, key string, perMinute, perDay int) Decision {
	now := l.now().UTC()
	minuteKey := fmt.Sprintf("%s%s:m:%d", l.keyPrefix, key, now.Unix()/60)
	dayKey := fmt.Sprintf("%s%s:d:%s", l.keyPrefix, key, now.Format("20060102"))

	var minuteCount, dayCount *redis.IntCmd
	_, err := l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		minuteCount = pipe.Incr(ctx, minuteKey)
		pipe.Expire(ctx, minuteKey, 2*time.Minute)
		dayCount = pipe.Incr(ctx, dayKey)
		pipe.Expire(ctx, dayKey, 25*time.Hour)
		return nil
	})
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request", zap.String("key", key), zap.Error(err))
		return Decision{Allowed: true}
	}

	if perMinute > 0 && minuteCount.Val() > int64(perMinute) {
		l.refundDay(ctx, key, dayKey)
		return Decision{Window: WindowMinute, RetryAfter: untilNextMinute(now)}
	}
	if perDay > 0 && dayCount.Val() > int64(perDay) {
		l.refundDay(ctx, key, dayKey)
		return Decision{Window: WindowDay, RetryAfter: untilNextDay(now)}
	}
	return Decision{Allowed: true}
}

// refundDay takes a rejected request back out of the daily count
func (l *RedisLimiter) refundDay(ctx context.Context, key, dayKey string) {
	if err := l.client.Decr(ctx, dayKey).Err(); err != nil {
		l.logger.Warn("failed to refund daily rate limit", zap.String("key", key), zap.Error(err))
	}
}
