// Package subscription 判断用户是否拥有覆盖某类内容的有效订阅，并在支付确认后开通订阅。
package subscription

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cvforge/internal/database"
)

var (
	ErrNotFound = errors.New("subscription not found")
	ErrInvalid  = errors.New("invalid subscription request")
)

// 各套餐时长（天）
var planDays = map[string]int{
	database.PlanTrial:     7,
	database.PlanMonthly:   30,
	database.PlanQuarterly: 90,
	database.PlanYearly:    365,
}

// PlanDuration 返回套餐时长。
func PlanDuration(plan string) (time.Duration, error) {
	days, ok := planDays[plan]
	if !ok {
		return 0, fmt.Errorf("%w: plan %q", ErrInvalid, plan)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// ParseContentType 校验下载请求的内容类型（cv 或 cover-letter）。
func ParseContentType(raw string) (string, error) {
	switch raw = strings.TrimSpace(raw); raw {
	case database.ContentCV, database.ContentCoverLetter:
		return raw, nil
	default:
		return "", fmt.Errorf("%w: content type %q", ErrInvalid, raw)
	}
}

func validSubscriptionType(t string) bool {
	return t == database.ContentCV || t == database.ContentCoverLetter || t == database.ContentAll
}

func validStatus(s string) bool {
	return s == database.StatusActive || s == database.StatusCanceled || s == database.StatusExpired
}

// IsValid: status 为 active 且 EndDate 晚于 now。过期只在这里按时间计算，
// 调用方不能单独信任 Status 字段。
func IsValid(s database.Subscription, now time.Time) bool {
	return s.Status == database.StatusActive && s.EndDate.After(now)
}

// Covers 判断订阅类型是否覆盖请求的内容类型。
func Covers(s database.Subscription, contentType string) bool {
	return s.Type == contentType || s.Type == database.ContentAll
}

// RemainingDays 向上取整的剩余天数，已过期返回 0。
func RemainingDays(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
