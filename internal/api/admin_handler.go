package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvforge/internal/api/middleware"
	"cvforge/internal/document"
	"cvforge/internal/render"
	"cvforge/internal/subscription"
	"cvforge/internal/tasks"
)

// AdminHandler 提供运营接口。
type AdminHandler struct {
	subscriptions *subscription.Service
	queue         TaskQueue
}

func NewAdminHandler(subscriptions *subscription.Service, queue TaskQueue) *AdminHandler {
	return &AdminHandler{subscriptions: subscriptions, queue: queue}
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetSubscriptionStatus 取消或恢复订阅。
func (h *AdminHandler) SetSubscriptionStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "status is required")
		return
	}
	log := middleware.LoggerFromContext(c).With(slog.String("subscription_id", c.Param("id")))

	err := h.subscriptions.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		NotFound(c, "subscription not found")
	case errors.Is(err, subscription.ErrInvalid):
		BadRequest(c, err.Error())
	case err != nil:
		Internal(c, log, "set subscription status failed", err)
	default:
		log.Info("subscription status changed", slog.String("status", req.Status))
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
	}
}

// RegenerateThumbnail 为模板重新生成画廊缩略图。?type 缺省时两种文档类型都生成。
func (h *AdminHandler) RegenerateThumbnail(c *gin.Context) {
	name := c.Param("name")
	if !render.Known(name) {
		NotFound(c, "template not found")
		return
	}
	kinds := []document.Kind{document.KindCV, document.KindCoverLetter}
	if raw := c.Query("type"); raw != "" {
		kind, err := document.ParseKind(raw)
		if err != nil {
			BadRequest(c, "unknown document type")
			return
		}
		kinds = []document.Kind{kind}
	}
	log := middleware.LoggerFromContext(c)

	ids := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		task, err := tasks.NewTemplatePreviewTask(tasks.TemplatePreviewPayload{
			Template:      name,
			Kind:          kind.String(),
			CorrelationID: middleware.GetCorrelationID(c),
		})
		if err != nil {
			Internal(c, log, "create template preview task failed", err)
			return
		}
		info, err := h.queue.Enqueue(task)
		if err != nil {
			Internal(c, log, "enqueue template preview failed", err)
			return
		}
		ids = append(ids, info.ID)
	}
	c.JSON(http.StatusAccepted, gin.H{"taskIds": ids})
}
