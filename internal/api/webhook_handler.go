package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvforge/internal/api/middleware"
	"cvforge/internal/subscription"
)

// WebhookHandler 接收支付网关已验证的支付回调。
type WebhookHandler struct {
	service *subscription.Service
}

func NewWebhookHandler(service *subscription.Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// PaymentCompleted 根据支付开通订阅，重复回调幂等。
func (h *WebhookHandler) PaymentCompleted(c *gin.Context) {
	var ev subscription.PaymentEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		BadRequest(c, err.Error())
		return
	}
	log := middleware.LoggerFromContext(c).With(slog.String("reference", ev.Reference))

	sub, created, err := h.service.Activate(c.Request.Context(), ev)
	if err != nil {
		if errors.Is(err, subscription.ErrInvalid) {
			BadRequest(c, err.Error())
			return
		}
		Internal(c, log, "activate subscription failed", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		log.Info("subscription activated", slog.String("subscription_id", sub.ID), slog.Uint64("user_id", uint64(sub.UserID)))
	}
	c.JSON(status, gin.H{
		"subscriptionId": sub.ID,
		"created":        created,
		"endDate":        sub.EndDate,
	})
}
