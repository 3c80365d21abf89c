package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cvforge/internal/database"
)

// 报表名称，对应 GET /analytics/:report。
const (
	ReportTotals        = "totals"
	ReportUsers         = "users"
	ReportDocuments     = "documents"
	ReportDownloads     = "downloads"
	ReportRevenue       = "revenue"
	ReportSubscriptions = "subscriptions"
)

var ErrUnknownReport = errors.New("unknown analytics report")

// Reports 返回全部报表名称。
func Reports() []string {
	return []string{ReportTotals, ReportUsers, ReportDocuments, ReportDownloads, ReportRevenue, ReportSubscriptions}
}

type Totals struct {
	Users               int64     `json:"users"`
	CVs                 int64     `json:"cvs"`
	CoverLetters        int64     `json:"coverLetters"`
	DownloadedDocuments int64     `json:"downloadedDocuments"`
	Downloads           int64     `json:"downloads"`
	ActiveSubscriptions int64     `json:"activeSubscriptions"`
	PayingUsers         int64     `json:"payingUsers"`
	Revenue             int64     `json:"revenue"`
	ConversionRate      float64   `json:"conversionRate"`
	ARPU                float64   `json:"arpu"`
	ARPPU               float64   `json:"arppu"`
	GeneratedAt         time.Time `json:"generatedAt"`
}

type UsersReport struct {
	Range   Range    `json:"range"`
	Monthly []Bucket `json:"monthly"`
	Total   int64    `json:"total"`
}

type DocumentsReport struct {
	Range        Range    `json:"range"`
	CVs          []Bucket `json:"cvs"`
	CoverLetters []Bucket `json:"coverLetters"`
}

type DownloadsReport struct {
	Range                     Range    `json:"range"`
	Monthly                   []Bucket `json:"monthly"`
	CVConversionRate          float64  `json:"cvConversionRate"`
	CoverLetterConversionRate float64  `json:"coverLetterConversionRate"`
}

// RevenueReport 中的金额均为最小货币单位之和，不做币种换算。
type RevenueReport struct {
	Range   Range    `json:"range"`
	Monthly []Bucket `json:"monthly"`
	Total   int64    `json:"total"`
	ARPU    float64  `json:"arpu"`
	ARPPU   float64  `json:"arppu"`
}

type SubscriptionsReport struct {
	Range  Range            `json:"range"`
	New    []Bucket         `json:"new"`
	ByPlan map[string]int64 `json:"byPlan"`
	Active int64            `json:"active"`
}

func kindScope(kind string) Scope {
	return func(q *gorm.DB) *gorm.DB { return q.Where("kind = ?", kind) }
}

func activeScope(now time.Time) Scope {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ? AND end_date > ?", database.StatusActive, now)
	}
}

func payingUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&database.Payment{}).
		Distinct("user_id").
		Where("user_id <> 0").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count paying users: %w", err)
	}
	return n, nil
}

func buildTotals(ctx context.Context, db *gorm.DB, now time.Time) (*Totals, error) {
	t := &Totals{GeneratedAt: now.UTC()}
	var err error
	if t.Users, err = count(ctx, db, "users", nil); err != nil {
		return nil, err
	}
	if t.CVs, err = count(ctx, db, "documents", kindScope(database.ContentCV)); err != nil {
		return nil, err
	}
	if t.CoverLetters, err = count(ctx, db, "documents", kindScope(database.ContentCoverLetter)); err != nil {
		return nil, err
	}
	downloaded := func(q *gorm.DB) *gorm.DB { return q.Where("is_downloaded = ?", true) }
	if t.DownloadedDocuments, err = count(ctx, db, "documents", downloaded); err != nil {
		return nil, err
	}
	if t.Downloads, err = sum(ctx, db, "documents", "download_count", nil); err != nil {
		return nil, err
	}
	if t.ActiveSubscriptions, err = count(ctx, db, "subscriptions", activeScope(now)); err != nil {
		return nil, err
	}
	if t.PayingUsers, err = payingUsers(ctx, db); err != nil {
		return nil, err
	}
	if t.Revenue, err = sum(ctx, db, "payments", "amount", nil); err != nil {
		return nil, err
	}
	t.ConversionRate = ConversionRate(t.CVs+t.CoverLetters, t.DownloadedDocuments)
	t.ARPU = ARPU(t.Revenue, t.Users)
	t.ARPPU = ARPPU(t.Revenue, t.PayingUsers)
	return t, nil
}

func buildUsers(ctx context.Context, db *gorm.DB, r Range) (*UsersReport, error) {
	monthly, err := MonthlyStats(ctx, db, "users", "created_at", r)
	if err != nil {
		return nil, err
	}
	total, err := count(ctx, db, "users", nil)
	if err != nil {
		return nil, err
	}
	return &UsersReport{Range: r, Monthly: monthly, Total: total}, nil
}

func buildDocuments(ctx context.Context, db *gorm.DB, r Range) (*DocumentsReport, error) {
	cvs, err := MonthlyStatsWhere(ctx, db, "documents", "created_at", r, kindScope(database.ContentCV))
	if err != nil {
		return nil, err
	}
	letters, err := MonthlyStatsWhere(ctx, db, "documents", "created_at", r, kindScope(database.ContentCoverLetter))
	if err != nil {
		return nil, err
	}
	return &DocumentsReport{Range: r, CVs: cvs, CoverLetters: letters}, nil
}

func buildDownloads(ctx context.Context, db *gorm.DB, r Range) (*DownloadsReport, error) {
	monthly, err := MonthlyStats(ctx, db, "documents", "last_downloaded_at", r)
	if err != nil {
		return nil, err
	}
	rate := func(kind string) (float64, error) {
		total, err := count(ctx, db, "documents", kindScope(kind))
		if err != nil {
			return 0, err
		}
		downloaded, err := count(ctx, db, "documents", func(q *gorm.DB) *gorm.DB {
			return kindScope(kind)(q).Where("is_downloaded = ?", true)
		})
		if err != nil {
			return 0, err
		}
		return ConversionRate(total, downloaded), nil
	}
	out := &DownloadsReport{Range: r, Monthly: monthly}
	if out.CVConversionRate, err = rate(database.ContentCV); err != nil {
		return nil, err
	}
	if out.CoverLetterConversionRate, err = rate(database.ContentCoverLetter); err != nil {
		return nil, err
	}
	return out, nil
}

func buildRevenue(ctx context.Context, db *gorm.DB, r Range) (*RevenueReport, error) {
	monthly, err := MonthlySum(ctx, db, "payments", "created_at", "amount", r)
	if err != nil {
		return nil, err
	}
	total, err := sum(ctx, db, "payments", "amount", nil)
	if err != nil {
		return nil, err
	}
	users, err := count(ctx, db, "users", nil)
	if err != nil {
		return nil, err
	}
	paying, err := payingUsers(ctx, db)
	if err != nil {
		return nil, err
	}
	return &RevenueReport{
		Range:   r,
		Monthly: monthly,
		Total:   total,
		ARPU:    ARPU(total, users),
		ARPPU:   ARPPU(total, paying),
	}, nil
}

func buildSubscriptions(ctx context.Context, db *gorm.DB, r Range, now time.Time) (*SubscriptionsReport, error) {
	created, err := MonthlyStats(ctx, db, "subscriptions", "start_date", r)
	if err != nil {
		return nil, err
	}
	active, err := count(ctx, db, "subscriptions", activeScope(now))
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Plan  string
		Total int64
	}
	err = db.WithContext(ctx).Model(&database.Subscription{}).
		Select("plan, COUNT(*) AS total").
		Group("plan").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count subscriptions by plan: %w", err)
	}
	byPlan := make(map[string]int64, len(rows))
	for _, row := range rows {
		byPlan[row.Plan] = row.Total
	}
	return &SubscriptionsReport{Range: r, New: created, ByPlan: byPlan, Active: active}, nil
}
