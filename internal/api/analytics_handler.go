package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cvforge/internal/analytics"
	"cvforge/internal/api/middleware"
)

// ReportSource 产出（可能来自缓存的）统计报表 JSON。
type ReportSource interface {
	Report(ctx context.Context, report string, now time.Time) (json.RawMessage, error)
}

type AnalyticsHandler struct {
	reports ReportSource
}

func NewAnalyticsHandler(reports ReportSource) *AnalyticsHandler {
	return &AnalyticsHandler{reports: reports}
}

// GetReport 返回 :report 对应的按月统计与派生比率。
func (h *AnalyticsHandler) GetReport(c *gin.Context) {
	raw, err := h.reports.Report(c.Request.Context(), c.Param("report"), time.Now().UTC())
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownReport) {
			NotFound(c, "unknown report")
			return
		}
		Internal(c, middleware.LoggerFromContext(c), "build report failed", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
