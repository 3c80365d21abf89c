package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"cvforge/internal/database"
)

// PaymentEvent 是支付网关回调中已验证的支付信息。Amount 为最小货币单位。
type PaymentEvent struct {
	Reference string    `json:"reference" binding:"required"`
	UserID    uint      `json:"userId"`
	Email     string    `json:"email"`
	Plan      string    `json:"plan" binding:"required"`
	Type      string    `json:"type" binding:"required"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paidAt"`
}

// Service 负责订阅的写操作。
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Activate 根据支付开通订阅。同一 Reference 重复回调时返回已有订阅，created 为 false。
func (s *Service) Activate(ctx context.Context, ev PaymentEvent) (sub *database.Subscription, created bool, err error) {
	ev.Reference = strings.TrimSpace(ev.Reference)
	ev.Email = normalizeEmail(ev.Email)
	if ev.Reference == "" {
		return nil, false, fmt.Errorf("%w: payment reference is required", ErrInvalid)
	}
	duration, err := PlanDuration(ev.Plan)
	if err != nil {
		return nil, false, err
	}
	if !validSubscriptionType(ev.Type) {
		return nil, false, fmt.Errorf("%w: type %q", ErrInvalid, ev.Type)
	}
	if ev.UserID == 0 && ev.Email == "" {
		return nil, false, fmt.Errorf("%w: user id or email is required", ErrInvalid)
	}
	start := ev.PaidAt
	if start.IsZero() {
		start = s.now()
	}
	start = start.UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Subscription
		switch err := tx.Where("payment_reference = ?", ev.Reference).First(&existing).Error; {
		case err == nil:
			sub = &existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("query subscription by payment: %w", err)
		}

		if ev.UserID == 0 {
			var user database.User
			if err := tx.Where("LOWER(email) = ?", ev.Email).First(&user).Error; err == nil {
				ev.UserID = user.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lookup user by email: %w", err)
			}
		}

		payment := database.Payment{
			UserID:    ev.UserID,
			Email:     ev.Email,
			Reference: ev.Reference,
			Plan:      ev.Plan,
			Type:      ev.Type,
			Amount:    ev.Amount,
			Currency:  strings.ToUpper(ev.Currency),
			CreatedAt: start,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		ref := ev.Reference
		sub = &database.Subscription{
			UserID:           ev.UserID,
			Email:            ev.Email,
			Plan:             ev.Plan,
			Type:             ev.Type,
			Status:           database.StatusActive,
			StartDate:        start,
			EndDate:          start.Add(duration),
			Amount:           ev.Amount,
			Currency:         strings.ToUpper(ev.Currency),
			PaymentReference: &ref,
		}
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return sub, created, nil
}

// Grant 由运营手工开通订阅，不关联支付。
func (s *Service) Grant(ctx context.Context, userID uint, plan, contentType string) (*database.Subscription, error) {
	duration, err := PlanDuration(plan)
	if err != nil {
		return nil, err
	}
	if !validSubscriptionType(contentType) {
		return nil, fmt.Errorf("%w: type %q", ErrInvalid, contentType)
	}

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d does not exist", ErrInvalid, userID)
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	start := s.now().UTC()
	sub := &database.Subscription{
		UserID:    user.ID,
		Email:     normalizeEmail(user.Email),
		Plan:      plan,
		Type:      contentType,
		Status:    database.StatusActive,
		StartDate: start,
		EndDate:   start.Add(duration),
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// SetStatus 修改订阅状态（管理操作）。
func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("%w: status %q", ErrInvalid, status)
	}
	res := s.db.WithContext(ctx).
		Model(&database.Subscription{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update subscription %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
