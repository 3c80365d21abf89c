package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cvforge/internal/api/middleware"
	"cvforge/internal/metrics"
	"cvforge/internal/subscription"
)

const noSubscriptionMessage = "No active subscription found for this content type"

// SubscriptionHandler 暴露订阅查询与下载校验接口。
type SubscriptionHandler struct {
	gate DownloadGate
	now  func() time.Time
}

func NewSubscriptionHandler(gate DownloadGate) *SubscriptionHandler {
	return &SubscriptionHandler{gate: gate, now: func() time.Time { return time.Now().UTC() }}
}

// GetStatus 返回当前用户针对 ?type 的订阅状态。没有订阅时 hasActiveSubscription 为 false 并附带 reason。
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	contentType, err := subscription.ParseContentType(c.Query("type"))
	if err != nil {
		BadRequest(c, "type must be cv or cover-letter")
		return
	}

	status, err := h.gate.Status(c.Request.Context(), userID, contentType, h.now())
	if err != nil {
		Internal(c, middleware.LoggerFromContext(c), "subscription status failed", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type verifyDownloadRequest struct {
	DownloadType string `json:"downloadType" binding:"required"`
}

// VerifyDownload 回答“能否下载”。否定结果仍是 200，由 success 区分。
func (h *SubscriptionHandler) VerifyDownload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req verifyDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "downloadType is required")
		return
	}
	contentType, err := subscription.ParseContentType(req.DownloadType)
	if err != nil {
		BadRequest(c, "downloadType must be cv or cover-letter")
		return
	}

	status, err := h.gate.Status(c.Request.Context(), userID, contentType, h.now())
	if err != nil {
		Internal(c, middleware.LoggerFromContext(c), "verify download failed", err)
		return
	}
	metrics.ObserveGate(contentType, status.HasActiveSubscription)

	if !status.HasActiveSubscription {
		c.JSON(http.StatusOK, gin.H{
			"success":               false,
			"hasActiveSubscription": false,
			"message":               noSubscriptionMessage,
			"reason":                status.Reason,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"hasActiveSubscription": true,
		"message":               "Active subscription found",
		"subscription":          status,
	})
}
