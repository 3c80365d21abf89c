package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type brokenCounter struct{}

func (brokenCounter) Incr(ctx context.Context, _ string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	cmd.SetErr(errors.New("connection refused"))
	return cmd
}

func (brokenCounter) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolCmd(ctx)
}

func TestWindowLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 20, 0, 0, time.UTC)
	l := newWindowLimiter(&memoryCounter{counts: map[string]int64{}}, "rate:login:", time.Hour, 2)

	assert.True(t, l.Allow(ctx, "1.2.3.4:ada", now))
	assert.True(t, l.Allow(ctx, "1.2.3.4:ada", now.Add(10*time.Minute)))
	assert.False(t, l.Allow(ctx, "1.2.3.4:ada", now.Add(20*time.Minute)))

	assert.True(t, l.Allow(ctx, "1.2.3.4:bob", now), "subjects are counted separately")
	assert.True(t, l.Allow(ctx, "1.2.3.4:ada", now.Add(time.Hour)), "next window starts fresh")
}

func TestWindowLimiterFailsOpen(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	assert.True(t, newWindowLimiter(brokenCounter{}, "rate:upload:", time.Hour, 1).Allow(ctx, "7", now))
	assert.True(t, newWindowLimiter(nil, "rate:upload:", time.Hour, 1).Allow(ctx, "7", now))
	assert.True(t, newWindowLimiter(&memoryCounter{counts: map[string]int64{}}, "rate:upload:", time.Hour, 0).Allow(ctx, "7", now))
}

func TestWindowLimiterKey(t *testing.T) {
	l := newWindowLimiter(nil, "rate:upload:", 24*time.Hour, 1)
	at := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, l.key("7", at), l.key("7", time.Date(2026, 3, 14, 0, 0, 1, 0, time.UTC)))
	assert.NotEqual(t, l.key("7", at), l.key("7", at.Add(2*time.Minute)))
}
