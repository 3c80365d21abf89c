package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cvforge/internal/database"
	"cvforge/internal/document"
	"cvforge/internal/export"
	"cvforge/internal/locale"
	"cvforge/internal/render"
	"cvforge/internal/storage"
	"cvforge/internal/tasks"
)

// TemplatePreviewHandler 负责模板画廊缩略图生成任务。
type TemplatePreviewHandler struct {
	db             *gorm.DB
	objects        ObjectStore
	engine         export.Engine
	logger         *slog.Logger
	thumbnailWidth int
}

func NewTemplatePreviewHandler(
	db *gorm.DB,
	objects ObjectStore,
	engine export.Engine,
	logger *slog.Logger,
	thumbnailWidth int,
) *TemplatePreviewHandler {
	return &TemplatePreviewHandler{
		db:             db,
		objects:        objects,
		engine:         engine,
		logger:         logger,
		thumbnailWidth: thumbnailWidth,
	}
}

func (h *TemplatePreviewHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.TemplatePreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal template preview payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log = log.With(
		slog.String("template", payload.Template),
		slog.String("kind", payload.Kind),
		slog.String("correlation_id", payload.CorrelationID),
	)

	kind, err := document.ParseKind(payload.Kind)
	if err != nil || !render.Known(payload.Template) {
		log.Warn("unknown template or kind, skipping task")
		return nil
	}
	log.Info("Starting template preview generation task...")

	out, err := render.Render(render.Sample(kind, payload.Template), render.Options{
		Locale: locale.Default,
		Mode:   render.ModePreview,
	})
	if err != nil {
		log.Error("render sample document failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	shot, err := h.engine.Screenshot(ctx, out.HTML)
	if err != nil {
		log.Error("capture template screenshot failed", slog.Any("error", err))
		return err
	}
	thumb, err := export.Thumbnail(shot, h.thumbnailWidth)
	if err != nil {
		log.Error("scale template screenshot failed", slog.Any("error", err))
		return err
	}

	objectName := storage.TemplatePreviewKey(kind.String(), payload.Template)
	if _, err := h.objects.UploadFile(ctx, objectName, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		log.Error("upload template preview failed", slog.Any("error", err))
		return err
	}

	preview := database.TemplatePreview{
		Template:  payload.Template,
		Kind:      kind.String(),
		ObjectKey: objectName,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "template"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"object_key", "updated_at"}),
		}).
		Create(&preview).Error; err != nil {
		log.Error("record template preview failed", slog.Any("error", err))
		return err
	}

	log.Info("Template preview generation completed.")
	return nil
}
