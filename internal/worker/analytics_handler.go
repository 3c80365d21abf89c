package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Refresher 重新计算并缓存全部统计报表。
type Refresher interface {
	Refresh(ctx context.Context, now time.Time) error
}

// AnalyticsRefreshHandler 消费周期性的统计刷新任务。
type AnalyticsRefreshHandler struct {
	refresher Refresher
	logger    *slog.Logger
	now       func() time.Time
}

func NewAnalyticsRefreshHandler(refresher Refresher, logger *slog.Logger) *AnalyticsRefreshHandler {
	return &AnalyticsRefreshHandler{refresher: refresher, logger: logger, now: time.Now}
}

func (h *AnalyticsRefreshHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	start := h.now()
	if err := h.refresher.Refresh(ctx, start); err != nil {
		h.logger.Error("refresh analytics failed", slog.Any("error", err))
		return err
	}
	h.logger.Info("Analytics refreshed.", slog.Duration("took", h.now().Sub(start)))
	return nil
}
