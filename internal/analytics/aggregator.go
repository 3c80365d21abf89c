package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Cache 保存序列化后的报表。Get 未命中时返回 ErrCacheMiss。
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("analytics cache miss")

// RedisCache 是基于 go-redis 的 Cache 实现。
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Aggregator 生成报表并缓存。cache 为 nil 时每次实时计算。
type Aggregator struct {
	db     *gorm.DB
	cache  Cache
	months int
	ttl    time.Duration
	logger *slog.Logger
}

func NewAggregator(db *gorm.DB, cache Cache, months int, ttl time.Duration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{db: db, cache: cache, months: months, ttl: ttl, logger: logger}
}

func cacheKey(report string, months int) string {
	return fmt.Sprintf("analytics:%s:%d", report, months)
}

// Build 实时计算一张报表。
func (a *Aggregator) Build(ctx context.Context, report string, now time.Time) (any, error) {
	r := TrailingMonths(now, a.months)
	switch report {
	case ReportTotals:
		return buildTotals(ctx, a.db, now)
	case ReportUsers:
		return buildUsers(ctx, a.db, r)
	case ReportDocuments:
		return buildDocuments(ctx, a.db, r)
	case ReportDownloads:
		return buildDownloads(ctx, a.db, r)
	case ReportRevenue:
		return buildRevenue(ctx, a.db, r)
	case ReportSubscriptions:
		return buildSubscriptions(ctx, a.db, r, now)
	default:
		return nil, ErrUnknownReport
	}
}

// Report 优先读缓存，未命中时计算并回写。返回 JSON 编码后的报表。
func (a *Aggregator) Report(ctx context.Context, report string, now time.Time) (json.RawMessage, error) {
	key := cacheKey(report, a.months)
	if a.cache != nil {
		b, err := a.cache.Get(ctx, key)
		switch {
		case err == nil:
			return b, nil
		case errors.Is(err, ErrCacheMiss):
		default:
			// 缓存不可用时降级为实时计算
			a.logger.Warn("analytics cache read failed", slog.String("report", report), slog.Any("error", err))
		}
	}

	b, err := a.buildJSON(ctx, report, now)
	if err != nil {
		return nil, err
	}
	a.store(ctx, key, b)
	return b, nil
}

// Refresh 并发重算全部报表并写入缓存，由定时任务调用。
func (a *Aggregator) Refresh(ctx context.Context, now time.Time) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, name := range Reports() {
		g.Go(func() error {
			b, err := a.buildJSON(gctx, name, now)
			if err != nil {
				return fmt.Errorf("build %s report: %w", name, err)
			}
			a.store(gctx, cacheKey(name, a.months), b)
			return nil
		})
	}
	return g.Wait()
}

func (a *Aggregator) buildJSON(ctx context.Context, report string, now time.Time) (json.RawMessage, error) {
	v, err := a.Build(ctx, report, now)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s report: %w", report, err)
	}
	return b, nil
}

func (a *Aggregator) store(ctx context.Context, key string, b []byte) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, b, a.ttl); err != nil {
		a.logger.Warn("analytics cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
