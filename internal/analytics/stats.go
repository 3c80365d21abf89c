package analytics

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// 允许统计的表与时间列。列名会拼进 SQL，必须来自白名单。
var dateFields = map[string]map[string]bool{
	"users":         {"created_at": true},
	"documents":     {"created_at": true, "last_edited": true, "last_downloaded_at": true},
	"subscriptions": {"created_at": true, "start_date": true, "end_date": true},
	"payments":      {"created_at": true},
}

var sumFields = map[string]map[string]bool{
	"payments":      {"amount": true},
	"subscriptions": {"amount": true},
	"documents":     {"download_count": true},
}

// 带软删除列的表
var softDeleted = map[string]bool{"users": true}

// Scope 为统计查询追加过滤条件，可为 nil。
type Scope func(*gorm.DB) *gorm.DB

func checkField(allowed map[string]map[string]bool, table, field string) error {
	if !allowed[table][field] {
		return fmt.Errorf("analytics: column %s.%s is not allowed", table, field)
	}
	return nil
}

func base(ctx context.Context, db *gorm.DB, table string, scope Scope) *gorm.DB {
	q := db.WithContext(ctx).Table(table)
	if softDeleted[table] {
		q = q.Where("deleted_at IS NULL")
	}
	if scope != nil {
		q = scope(q)
	}
	return q
}

// MonthlyStats 统计 table 中 dateField 落在每个月内的行数。
func MonthlyStats(ctx context.Context, db *gorm.DB, table, dateField string, r Range) ([]Bucket, error) {
	return MonthlyStatsWhere(ctx, db, table, dateField, r, nil)
}

// MonthlyStatsWhere 同 MonthlyStats，额外应用 scope。
func MonthlyStatsWhere(ctx context.Context, db *gorm.DB, table, dateField string, r Range, scope Scope) ([]Bucket, error) {
	if err := checkField(dateFields, table, dateField); err != nil {
		return nil, err
	}
	months := Months(r)
	out := make([]Bucket, 0, len(months))
	for _, m := range months {
		var count int64
		err := base(ctx, db, table, scope).
			Where(dateField+" >= ? AND "+dateField+" <= ?", m.Start, m.End).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("count %s by %s for %s: %w", table, dateField, m.Label, err)
		}
		out = append(out, Bucket{Month: m.Label, Count: count})
	}
	return out, nil
}

// MonthlySum 对每个月内的 sumField 求和，结果放在 Bucket.Count 中。
func MonthlySum(ctx context.Context, db *gorm.DB, table, dateField, sumField string, r Range) ([]Bucket, error) {
	if err := checkField(dateFields, table, dateField); err != nil {
		return nil, err
	}
	if err := checkField(sumFields, table, sumField); err != nil {
		return nil, err
	}
	months := Months(r)
	out := make([]Bucket, 0, len(months))
	for _, m := range months {
		var sum int64
		err := base(ctx, db, table, nil).
			Where(dateField+" >= ? AND "+dateField+" <= ?", m.Start, m.End).
			Select("COALESCE(SUM(" + sumField + "), 0)").
			Scan(&sum).Error
		if err != nil {
			return nil, fmt.Errorf("sum %s.%s for %s: %w", table, sumField, m.Label, err)
		}
		out = append(out, Bucket{Month: m.Label, Count: sum})
	}
	return out, nil
}

func count(ctx context.Context, db *gorm.DB, table string, scope Scope) (int64, error) {
	var n int64
	if err := base(ctx, db, table, scope).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func sum(ctx context.Context, db *gorm.DB, table, field string, scope Scope) (int64, error) {
	if err := checkField(sumFields, table, field); err != nil {
		return 0, err
	}
	var n int64
	err := base(ctx, db, table, scope).Select("COALESCE(SUM(" + field + "), 0)").Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("sum %s.%s: %w", table, field, err)
	}
	return n, nil
}
