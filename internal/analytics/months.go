// Package analytics 提供按月分桶的统计与派生比率，供管理后台使用。
package analytics

import (
	"math"
	"time"
)

// Range 是闭区间 [Start, End]。
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Month 是一个自然月的边界：首日 00:00:00 到末日 23:59:59.999999999。
type Month struct {
	Label string
	Start time.Time
	End   time.Time
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func monthEnd(t time.Time) time.Time {
	return monthStart(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// TrailingMonths 返回截至 now 所在月份（含）的最近 n 个自然月，按 UTC 计算。
func TrailingMonths(now time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	now = now.UTC()
	return Range{
		Start: monthStart(now).AddDate(0, -(n - 1), 0),
		End:   monthEnd(now),
	}
}

// Months 从 Start 所在月遍历到 End 所在月（含两端）。
func Months(r Range) []Month {
	var out []Month
	if r.End.Before(r.Start) {
		return out
	}
	last := monthStart(r.End)
	for cur := monthStart(r.Start); !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		out = append(out, Month{
			Label: cur.Format("2006-01"),
			Start: cur,
			End:   monthEnd(cur),
		})
	}
	return out
}

// Bucket 是单月计数。
type Bucket struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// BucketByMonth 在内存中按月计数，落在 Range 之外的时间被忽略。
func BucketByMonth(times []time.Time, r Range) []Bucket {
	months := Months(r)
	out := make([]Bucket, len(months))
	for i, m := range months {
		out[i].Month = m.Label
	}
	for _, t := range times {
		for i, m := range months {
			if !t.Before(m.Start) && !t.After(m.End) {
				out[i].Count++
				break
			}
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ConversionRate = downloaded / total × 100，total 为 0 时返回 0。
func ConversionRate(total, downloaded int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(downloaded) / float64(total) * 100)
}

// ARPU = revenue / users，users 为 0 时返回 0。
func ARPU(revenue, users int64) float64 {
	if users == 0 {
		return 0
	}
	return round2(float64(revenue) / float64(users))
}

// ARPPU = revenue / payingUsers，payingUsers 为 0 时返回 0。
func ARPPU(revenue, payingUsers int64) float64 {
	return ARPU(revenue, payingUsers)
}
