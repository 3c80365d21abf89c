package api

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateCounter 是限流用到的 Redis 命令子集。
type rateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// windowLimiter 固定窗口计数，窗口起点写进 key，过期交给 Redis。
type windowLimiter struct {
	counter rateCounter
	prefix  string
	window  time.Duration
	limit   int
}

func newWindowLimiter(counter rateCounter, prefix string, window time.Duration, limit int) *windowLimiter {
	return &windowLimiter{counter: counter, prefix: prefix, window: window, limit: limit}
}

func (l *windowLimiter) key(subject string, now time.Time) string {
	start := now.UTC().Truncate(l.window).Unix()
	return l.prefix + subject + ":" + strconv.FormatInt(start, 10)
}

// Allow 记一次命中，超过 limit 返回 false。
// Redis 出错时放行。
func (l *windowLimiter) Allow(ctx context.Context, subject string, now time.Time) bool {
	if l == nil || l.counter == nil || l.limit <= 0 {
		return true
	}
	key := l.key(subject, now)
	count, err := l.counter.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		_ = l.counter.Expire(ctx, key, l.window).Err()
	}
	return count <= int64(l.limit)
}
