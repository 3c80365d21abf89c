package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cvforge/internal/api/middleware"
	"cvforge/internal/database"
	"cvforge/internal/document"
	"cvforge/internal/render"
)

// TemplateHandler 负责模板画廊。
type TemplateHandler struct {
	db      *gorm.DB
	storage ObjectStorage
}

func NewTemplateHandler(db *gorm.DB, storageClient ObjectStorage) *TemplateHandler {
	return &TemplateHandler{db: db, storage: storageClient}
}

type templateListItem struct {
	render.Theme
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// ListTemplates 返回全部模板变体及其缩略图。?type 选择缩略图的文档类型，默认 cv。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	kind, ok := galleryKind(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	var previews []database.TemplatePreview
	if err := h.db.WithContext(ctx).Where("kind = ?", kind.String()).Find(&previews).Error; err != nil {
		Internal(c, log, "list template previews failed", err)
		return
	}
	keys := make(map[string]string, len(previews))
	for _, p := range previews {
		keys[p.Template] = p.ObjectKey
	}

	gallery := render.Gallery()
	items := make([]templateListItem, 0, len(gallery))
	for _, theme := range gallery {
		item := templateListItem{Theme: theme}
		if key, ok := keys[theme.Name]; ok {
			url, err := h.storage.GeneratePresignedURL(ctx, key, photoURLTTL)
			if err != nil {
				log.Warn("presign template thumbnail failed", slog.String("template", theme.Name), slog.Any("error", err))
			} else {
				item.ThumbnailURL = url
			}
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// PreviewTemplate 用示例内容渲染一个模板变体。
func (h *TemplateHandler) PreviewTemplate(c *gin.Context) {
	name := c.Param("name")
	if !render.Known(name) {
		NotFound(c, "template not found")
		return
	}
	kind, ok := galleryKind(c)
	if !ok {
		return
	}

	out, err := render.Render(render.Sample(kind, name), render.Options{
		Locale: localeFromRequest(c),
		Mode:   render.ModePreview,
	})
	if err != nil {
		Internal(c, middleware.LoggerFromContext(c), "render template sample failed", err)
		return
	}
	writeRendered(c, out)
}

func galleryKind(c *gin.Context) (document.Kind, bool) {
	raw := c.DefaultQuery("type", string(document.KindCV))
	kind, err := document.ParseKind(raw)
	if err != nil {
		BadRequest(c, "unknown document type")
		return "", false
	}
	return kind, true
}
