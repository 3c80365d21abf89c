package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cvforge/internal/database"
	"cvforge/internal/errcode"
)

// Status 是订阅检查结果。没有有效订阅是正常的否定结果，通过 Reason 说明原因，不是错误。
type Status struct {
	HasActiveSubscription bool       `json:"hasActiveSubscription"`
	SubscriptionID        string     `json:"subscriptionId,omitempty"`
	Plan                  string     `json:"plan,omitempty"`
	Type                  string     `json:"type,omitempty"`
	EndDate               *time.Time `json:"endDate,omitempty"`
	RemainingDays         int        `json:"remainingDays"`
	Reason                string     `json:"reason,omitempty"`
}

// Gate 负责下载权限判断。
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// Status 查找按 user_id 或 email 匹配、当前有效、类型覆盖 contentType 的订阅。
// 存在多条时取 EndDate 最晚的一条用于展示剩余天数。
func (g *Gate) Status(ctx context.Context, userID uint, contentType string, now time.Time) (Status, error) {
	if userID == 0 {
		return Status{Reason: errcode.Unauthenticated}, nil
	}

	var user database.User
	if err := g.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Status{Reason: errcode.UserNotFound}, nil
		}
		return Status{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	var candidates []database.Subscription
	q := g.db.WithContext(ctx).Where("user_id = ?", userID)
	if email := normalizeEmail(user.Email); email != "" {
		q = g.db.WithContext(ctx).Where("user_id = ? OR LOWER(email) = ?", userID, email)
	}
	if err := q.Find(&candidates).Error; err != nil {
		return Status{}, fmt.Errorf("query subscriptions for user %d: %w", userID, err)
	}

	var best *database.Subscription
	for i := range candidates {
		s := &candidates[i]
		if !IsValid(*s, now) || !Covers(*s, contentType) {
			continue
		}
		if best == nil || s.EndDate.After(best.EndDate) {
			best = s
		}
	}
	if best == nil {
		return Status{Reason: errcode.NoSubscription}, nil
	}

	end := best.EndDate
	return Status{
		HasActiveSubscription: true,
		SubscriptionID:        best.ID,
		Plan:                  best.Plan,
		Type:                  best.Type,
		EndDate:               &end,
		RemainingDays:         RemainingDays(end, now),
	}, nil
}

// IsDownloadAllowed 是 Status 的布尔简写。
func (g *Gate) IsDownloadAllowed(ctx context.Context, userID uint, contentType string, now time.Time) (bool, error) {
	st, err := g.Status(ctx, userID, contentType, now)
	if err != nil {
		return false, err
	}
	return st.HasActiveSubscription, nil
}
