package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvforge/internal/api/middleware"
	"cvforge/internal/database"
	"cvforge/internal/document"
	"cvforge/internal/errcode"
	"cvforge/internal/export"
	"cvforge/internal/locale"
	"cvforge/internal/metrics"
	"cvforge/internal/render"
	"cvforge/internal/storage"
	"cvforge/internal/tasks"
)

const (
	photoURLTTL     = 15 * time.Minute
	downloadLinkTTL = 5 * time.Minute
)

// DocumentHandler 负责简历与求职信的增删改查、预览、导出与下载。
type DocumentHandler struct {
	db           *gorm.DB
	queue        TaskQueue
	storage      ObjectStorage
	gate         DownloadGate
	tracker      *export.Tracker
	maxDocuments int
	now          func() time.Time
}

// NewDocumentHandler 构造 DocumentHandler。
func NewDocumentHandler(db *gorm.DB, queue TaskQueue, storageClient ObjectStorage, gate DownloadGate, maxDocuments int) *DocumentHandler {
	return &DocumentHandler{
		db:           db,
		queue:        queue,
		storage:      storageClient,
		gate:         gate,
		tracker:      export.NewTracker(db),
		maxDocuments: maxDocuments,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type documentSummary struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Template      string    `json:"template"`
	IsDownloaded  bool      `json:"isDownloaded"`
	DownloadCount int64     `json:"downloadCount"`
	ExportStatus  string    `json:"exportStatus,omitempty"`
	ThumbnailURL  string    `json:"thumbnailUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastEdited    time.Time `json:"lastEdited"`
}

type documentResponse struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	document.Layout
	Data             document.Data `json:"data"`
	IsDownloaded     bool          `json:"isDownloaded"`
	DownloadCount    int64         `json:"downloadCount"`
	LastDownloadedAt *time.Time    `json:"lastDownloadedAt,omitempty"`
	ExportStatus     string        `json:"exportStatus,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	LastEdited       time.Time     `json:"lastEdited"`
}

func newDocumentResponse(doc *database.Document) documentResponse {
	return documentResponse{
		ID:               doc.ID,
		Type:             doc.Kind,
		Title:            doc.Title,
		Layout:           doc.Layout(),
		Data:             doc.Data.Data(),
		IsDownloaded:     doc.IsDownloaded,
		DownloadCount:    doc.DownloadCount,
		LastDownloadedAt: doc.LastDownloadedAt,
		ExportStatus:     doc.ExportStatus,
		CreatedAt:        doc.CreatedAt,
		LastEdited:       doc.LastEdited,
	}
}

// ListDocuments 返回当前用户某一类型的全部文档，最近编辑的在前。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	userID, kind, ok := h.scope(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	var docs []database.Document
	if err := h.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ?", userID, kind.String()).
		Order("last_edited DESC").
		Find(&docs).Error; err != nil {
		Internal(c, log, "list documents failed", err)
		return
	}

	items := make([]documentSummary, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		item := documentSummary{
			ID:            doc.ID,
			Type:          doc.Kind,
			Title:         doc.Title,
			Template:      doc.Template,
			IsDownloaded:  doc.IsDownloaded,
			DownloadCount: doc.DownloadCount,
			ExportStatus:  doc.ExportStatus,
			CreatedAt:     doc.CreatedAt,
			LastEdited:    doc.LastEdited,
		}
		if doc.ThumbnailKey != "" {
			if url, err := h.storage.GeneratePresignedURL(ctx, doc.ThumbnailKey, photoURLTTL); err == nil {
				item.ThumbnailURL = url
			} else {
				log.Warn("presign thumbnail failed", slog.String("document_id", doc.ID), slog.Any("error", err))
			}
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateDocument 新建文档；请求体为空时按默认模板创建空文档。
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	userID, kind, ok := h.scope(c)
	if !ok {
		return
	}
	payload, ok := h.bindPayload(c, kind, userID)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	if h.maxDocuments > 0 {
		var count int64
		if err := h.db.WithContext(ctx).
			Model(&database.Document{}).
			Where("owner_id = ? AND kind = ?", userID, kind.String()).
			Count(&count).Error; err != nil {
			Internal(c, log, "count documents failed", err)
			return
		}
		if count >= int64(h.maxDocuments) {
			Forbidden(c, "document limit reached")
			return
		}
	}

	doc := database.Document{
		OwnerID: userID,
		Kind:    kind.String(),
		Title:   strings.TrimSpace(payload.Title),
	}
	doc.SetLayout(document.Normalize(document.Merge(document.DefaultLayout(kind), payload.Layout)))
	var data document.Data
	if payload.Data != nil {
		data = *payload.Data
	}
	doc.Data = datatypes.NewJSONType(data)

	if err := h.db.WithContext(ctx).Create(&doc).Error; err != nil {
		Internal(c, log, "create document failed", err)
		return
	}
	log.Info("document created", slog.String("document_id", doc.ID), slog.String("kind", doc.Kind))
	c.JSON(http.StatusCreated, newDocumentResponse(&doc))
}

// GetDocument 返回完整的文档记录。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(doc))
}

// UpdateDocument 按字段覆盖文档，后写入者胜出。
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	userID, kind, ok := h.scope(c)
	if !ok {
		return
	}
	payload, ok := h.bindPayload(c, kind, userID)
	if !ok {
		return
	}
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	log := middleware.LoggerFromContext(c)

	if title := strings.TrimSpace(payload.Title); title != "" {
		doc.Title = title
	}
	doc.SetLayout(document.Normalize(document.Merge(doc.Layout(), payload.Layout)))
	if payload.Data != nil {
		doc.Data = datatypes.NewJSONType(*payload.Data)
	}
	doc.LastEdited = h.now()

	// 只写编辑字段，下载统计由下载跟踪路径独占。
	if err := h.db.WithContext(c.Request.Context()).
		Model(doc).
		Select("title", "template", "accent_color", "font_family", "section_order",
			"section_pages", "custom_section_names", "data", "last_edited").
		Updates(doc).Error; err != nil {
		Internal(c, log, "update document failed", err)
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(doc))
}

// DeleteDocument 删除文档及其导出文件。
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.String("document_id", doc.ID))

	if err := h.db.WithContext(ctx).Delete(&database.Document{}, "id = ? AND owner_id = ?", doc.ID, doc.OwnerID).Error; err != nil {
		Internal(c, log, "delete document failed", err)
		return
	}
	if err := h.storage.DeletePrefix(ctx, storage.ExportPrefix(doc.OwnerID, doc.Kind, doc.ID)); err != nil {
		log.Warn("delete export objects failed", slog.Any("error", err))
	}
	c.Status(http.StatusNoContent)
}

// PreviewDocument 渲染已保存的文档。?mode=export 不填充示例内容，?format=html 直接返回 HTML。
func (h *DocumentHandler) PreviewDocument(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	mode := render.ModePreview
	if c.Query("mode") == string(render.ModeExport) {
		mode = render.ModeExport
	}

	in := h.renderInput(c, doc)
	out, err := render.Render(in, render.Options{Locale: localeFromRequest(c), Mode: mode})
	if err != nil {
		h.renderFailed(c, err)
		return
	}
	writeRendered(c, out)
}

// PreviewDraft 渲染尚未保存的编辑内容。草稿无法渲染时返回已保存版本并标记 stale。
func (h *DocumentHandler) PreviewDraft(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var payload document.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid draft payload")
		return
	}

	opts := render.Options{Locale: localeFromRequest(c), Mode: render.ModePreview}
	saved := h.renderInput(c, doc)
	if previous, err := render.Render(saved, opts); err == nil {
		opts.Previous = previous
	}

	draft := saved
	draft.Layout = document.Normalize(document.Merge(saved.Layout, payload.Layout))
	if payload.Data != nil {
		draft.Data = *payload.Data
	}
	if title := strings.TrimSpace(payload.Title); title != "" {
		draft.Title = title
	}

	out, err := render.Render(draft, opts)
	if err != nil {
		h.renderFailed(c, err)
		return
	}
	writeRendered(c, out)
}

// ExportDocument 校验订阅后把导出任务入队，立即返回 202。
func (h *DocumentHandler) ExportDocument(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if !h.requireSubscription(c, doc) {
		return
	}
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.String("document_id", doc.ID))

	task, err := tasks.NewExportDocumentTask(tasks.ExportDocumentPayload{
		DocumentID:    doc.ID,
		OwnerID:       doc.OwnerID,
		Kind:          doc.Kind,
		Locale:        string(localeFromRequest(c)),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, log, "create export task failed", err)
		return
	}
	info, err := h.queue.Enqueue(task)
	if err != nil {
		Internal(c, log, "enqueue export failed", err)
		return
	}

	if err := h.db.WithContext(ctx).
		Model(&database.Document{}).
		Where("id = ?", doc.ID).
		UpdateColumns(map[string]any{"export_status": database.ExportPending, "export_error": ""}).Error; err != nil {
		log.Warn("mark export pending failed", slog.Any("error", err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "export request accepted",
		"taskId":     info.ID,
		"documentId": doc.ID,
	})
}

// GetDownloadLink 返回已导出 PDF 的限时下载链接。下载次数由客户端随后调用 track-download 记录。
func (h *DocumentHandler) GetDownloadLink(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if !h.requireSubscription(c, doc) {
		return
	}
	if doc.PDFObjectKey == "" || doc.ExportStatus != database.ExportCompleted {
		Conflict(c, "export not ready")
		return
	}

	params := map[string]string{
		"response-content-disposition": fmt.Sprintf("attachment; filename=%q", downloadFilename(doc)),
	}
	url, err := h.storage.GeneratePresignedURLWithParams(c.Request.Context(), doc.PDFObjectKey, downloadLinkTTL, params)
	if err != nil {
		Internal(c, middleware.LoggerFromContext(c), "generate download link failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(downloadLinkTTL.Seconds())})
}

type trackDownloadRequest struct {
	DocumentType string `json:"documentType" binding:"required"`
	DocumentID   string `json:"documentId" binding:"required"`
}

// TrackDownload 记录一次成功的下载。
func (h *DocumentHandler) TrackDownload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req trackDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "documentType and documentId are required")
		return
	}
	kind, err := document.ParseKind(req.DocumentType)
	if err != nil {
		BadRequest(c, "unknown document type")
		return
	}
	log := middleware.LoggerFromContext(c).With(
		slog.String("document_id", req.DocumentID),
		slog.Uint64("user_id", uint64(userID)),
	)

	err = h.tracker.TrackDownload(c.Request.Context(), userID, kind, req.DocumentID, h.now())
	switch {
	case errors.Is(err, document.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "document not found", "code": errcode.NotFound})
	case err != nil:
		log.Error("track download failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to track download", "code": errcode.ServerError})
	default:
		metrics.ObserveDownload(kind.String())
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "download tracked"})
	}
}

// scope 取出当前用户与路径中的文档类型，失败时已写出响应。
func (h *DocumentHandler) scope(c *gin.Context) (uint, document.Kind, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return 0, "", false
	}
	kind, ok := kindFromParam(c)
	if !ok {
		NotFound(c, "unknown document type")
		return 0, "", false
	}
	return userID, kind, true
}

// loadOwned 按 id、类型与所有者加载文档。属于其他用户的文档同样返回 404。
func (h *DocumentHandler) loadOwned(c *gin.Context) (*database.Document, bool) {
	userID, kind, ok := h.scope(c)
	if !ok {
		return nil, false
	}
	var doc database.Document
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND owner_id = ? AND kind = ?", c.Param("id"), userID, kind.String()).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "document not found")
			return nil, false
		}
		Internal(c, middleware.LoggerFromContext(c), "query document failed", err)
		return nil, false
	}
	return &doc, true
}

// bindPayload 先用 JSON Schema 校验原始请求体，再解码。
func (h *DocumentHandler) bindPayload(c *gin.Context, kind document.Kind, userID uint) (document.Payload, bool) {
	var payload document.Payload
	raw, err := c.GetRawData()
	if err != nil {
		BadRequest(c, "failed to read body")
		return payload, false
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	if err := document.Validate(kind, raw); err != nil {
		ValidationFailed(c, err)
		return payload, false
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		BadRequest(c, "invalid payload")
		return payload, false
	}
	if payload.Template != "" && !render.Known(payload.Template) {
		BadRequest(c, "unknown template")
		return payload, false
	}
	if payload.Data != nil {
		if key := payload.Data.PersonalInfo.PhotoKey; key != "" && !isValidUserPhotoKey(userID, key) {
			BadRequest(c, "invalid photo key")
			return payload, false
		}
	}
	return payload, true
}

func (h *DocumentHandler) renderInput(c *gin.Context, doc *database.Document) render.Input {
	in := export.InputFor(doc)
	key := in.Data.PersonalInfo.PhotoKey
	if key == "" || !isValidUserPhotoKey(doc.OwnerID, key) {
		return in
	}
	url, err := h.storage.GeneratePresignedURL(c.Request.Context(), key, photoURLTTL)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("presign photo failed", slog.String("key", key), slog.Any("error", err))
		return in
	}
	in.PhotoURL = template.URL(url)
	return in
}

func (h *DocumentHandler) renderFailed(c *gin.Context, err error) {
	if errors.Is(err, render.ErrInvalidInput) {
		BadRequest(c, "document cannot be rendered")
		return
	}
	Internal(c, middleware.LoggerFromContext(c), "render document failed", err)
}

// requireSubscription 校验下载权限，失败时已写出响应。
func (h *DocumentHandler) requireSubscription(c *gin.Context, doc *database.Document) bool {
	status, err := h.gate.Status(c.Request.Context(), doc.OwnerID, doc.Kind, h.now())
	if err != nil {
		Internal(c, middleware.LoggerFromContext(c), "subscription check failed", err)
		return false
	}
	metrics.ObserveGate(doc.Kind, status.HasActiveSubscription)
	if !status.HasActiveSubscription {
		c.JSON(http.StatusForbidden, gin.H{
			"error":  noSubscriptionMessage,
			"code":   errcode.Forbidden,
			"reason": status.Reason,
		})
		return false
	}
	return true
}

func writeRendered(c *gin.Context, out *render.Rendered) {
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out.HTML))
		return
	}
	c.JSON(http.StatusOK, out)
}

// localeFromRequest 优先使用 ?locale，否则按 Accept-Language 协商。
func localeFromRequest(c *gin.Context) locale.Locale {
	if raw := strings.TrimSpace(c.Query("locale")); raw != "" {
		return locale.Parse(raw)
	}
	return locale.Negotiate(c.GetHeader("Accept-Language"))
}

func downloadFilename(doc *database.Document) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(doc.Title))
	if name == "" {
		name = doc.Kind
	}
	return name + ".pdf"
}
