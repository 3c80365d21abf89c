package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/database"
	"cvforge/internal/database/dbtest"
)

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestTrailingMonthsAndMonths(t *testing.T) {
	r := TrailingMonths(utc(2025, 2, 14, 9), 3)
	assert.Equal(t, utc(2024, 12, 1, 0), r.Start)
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 999999999, time.UTC), r.End)

	months := Months(r)
	require.Len(t, months, 3)
	assert.Equal(t, "2024-12", months[0].Label)
	assert.Equal(t, "2025-01", months[1].Label)
	assert.Equal(t, "2025-02", months[2].Label)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC), months[0].End)

	assert.Empty(t, Months(Range{Start: r.End, End: r.Start}))
}

func TestBucketByMonth(t *testing.T) {
	r := Range{Start: utc(2025, 1, 1, 0), End: time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)}
	times := []time.Time{
		utc(2025, 1, 1, 0),
		utc(2025, 1, 31, 23),
		utc(2025, 2, 10, 12),
		time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
		utc(2025, 4, 1, 0), // 超出范围
	}

	got := BucketByMonth(times, r)
	assert.Equal(t, []Bucket{{"2025-01", 2}, {"2025-02", 1}, {"2025-03", 1}}, got)
}

func TestRatiosGuardZero(t *testing.T) {
	assert.Equal(t, 0.0, ConversionRate(0, 0))
	assert.Equal(t, 25.0, ConversionRate(8, 2))
	assert.Equal(t, 33.33, ConversionRate(3, 1))
	assert.Equal(t, 0.0, ARPU(1000, 0))
	assert.Equal(t, 250.0, ARPU(1000, 4))
	assert.Equal(t, 0.0, ARPPU(1000, 0))
}

func TestMonthlyStatsMatchesManualTally(t *testing.T) {
	db := dbtest.Open(t)
	created := []time.Time{
		utc(2025, 1, 3, 8), utc(2025, 1, 28, 17),
		utc(2025, 2, 1, 0),
		utc(2025, 3, 5, 10), utc(2025, 3, 15, 10), utc(2025, 3, 31, 22),
	}
	for i, ts := range created {
		kind := database.ContentCV
		if i%2 == 1 {
			kind = database.ContentCoverLetter
		}
		require.NoError(t, db.Create(&database.Document{OwnerID: 1, Kind: kind, CreatedAt: ts}).Error)
	}
	// 范围外
	require.NoError(t, db.Create(&database.Document{OwnerID: 1, Kind: database.ContentCV, CreatedAt: utc(2024, 12, 31, 12)}).Error)

	r := TrailingMonths(utc(2025, 3, 20, 0), 3)
	got, err := MonthlyStats(context.Background(), db, "documents", "created_at", r)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, []Bucket{{"2025-01", 2}, {"2025-02", 1}, {"2025-03", 3}}, got)

	var total int64
	for _, b := range got {
		total += b.Count
	}
	assert.Equal(t, int64(len(created)), total)
}

func TestMonthlyStatsRejectsUnknownColumn(t *testing.T) {
	db := dbtest.Open(t)
	r := TrailingMonths(time.Now(), 1)

	_, err := MonthlyStats(context.Background(), db, "documents", "title; DROP TABLE users", r)
	assert.Error(t, err)
	_, err = MonthlySum(context.Background(), db, "payments", "created_at", "reference", r)
	assert.Error(t, err)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func TestTotalsReport(t *testing.T) {
	db := dbtest.Open(t)
	now := utc(2025, 5, 10, 12)

	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"} {
		require.NoError(t, db.Create(&database.User{Username: email, Email: email}).Error)
	}
	require.NoError(t, db.Create(&database.Document{OwnerID: 1, Kind: database.ContentCV, IsDownloaded: true, DownloadCount: 3}).Error)
	require.NoError(t, db.Create(&database.Document{OwnerID: 1, Kind: database.ContentCoverLetter}).Error)
	require.NoError(t, db.Create(&database.Payment{UserID: 1, Reference: "p1", Amount: 1000, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&database.Payment{UserID: 1, Reference: "p2", Amount: 1000, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&database.Subscription{UserID: 1, Status: database.StatusActive, Plan: database.PlanMonthly, StartDate: now, EndDate: now.Add(24 * time.Hour)}).Error)

	agg := NewAggregator(db, nil, 6, time.Minute, nil)
	v, err := agg.Build(context.Background(), ReportTotals, now)
	require.NoError(t, err)

	totals := v.(*Totals)
	assert.Equal(t, int64(4), totals.Users)
	assert.Equal(t, int64(1), totals.CVs)
	assert.Equal(t, int64(1), totals.CoverLetters)
	assert.Equal(t, int64(3), totals.Downloads)
	assert.Equal(t, 50.0, totals.ConversionRate)
	assert.Equal(t, int64(2000), totals.Revenue)
	assert.Equal(t, int64(1), totals.PayingUsers)
	assert.Equal(t, 500.0, totals.ARPU)
	assert.Equal(t, 2000.0, totals.ARPPU)
	assert.Equal(t, int64(1), totals.ActiveSubscriptions)
}

func TestReportUsesCache(t *testing.T) {
	db := dbtest.Open(t)
	cache := newMemCache()
	agg := NewAggregator(db, cache, 6, time.Minute, nil)
	ctx := context.Background()
	now := time.Now()

	first, err := agg.Report(ctx, ReportUsers, now)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, db.Create(&database.User{Username: "late", Email: "late@x.io"}).Error)

	second, err := agg.Report(ctx, ReportUsers, now)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second), "served from cache")
	assert.Equal(t, 1, cache.sets)

	var report UsersReport
	require.NoError(t, json.Unmarshal(second, &report))
	assert.Len(t, report.Monthly, 6)

	_, err = agg.Report(ctx, "churn", now)
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestRefreshWritesEveryReport(t *testing.T) {
	db := dbtest.Open(t)
	cache := newMemCache()
	agg := NewAggregator(db, cache, 3, time.Minute, nil)

	require.NoError(t, agg.Refresh(context.Background(), time.Now()))
	for _, name := range Reports() {
		assert.Contains(t, cache.data, cacheKey(name, 3))
	}
}
