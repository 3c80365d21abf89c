package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"cvforge/internal/database"
	"cvforge/internal/errcode"
	"cvforge/internal/export"
	"cvforge/internal/locale"
	"cvforge/internal/metrics"
	"cvforge/internal/render"
	"cvforge/internal/storage"
	"cvforge/internal/tasks"
)

// ObjectStore 是导出流程用到的对象存储能力，storage.Client 实现了它。
type ObjectStore interface {
	export.ObjectReader
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
}

// ExportTaskHandler 负责消费文档导出任务。
type ExportTaskHandler struct {
	db             *gorm.DB
	objects        ObjectStore
	engine         export.Engine
	publisher      Publisher
	logger         *slog.Logger
	thumbnailWidth int
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	objects ObjectStore,
	engine export.Engine,
	publisher Publisher,
	logger *slog.Logger,
	thumbnailWidth int,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:             db,
		objects:        objects,
		engine:         engine,
		publisher:      publisher,
		logger:         logger,
		thumbnailWidth: thumbnailWidth,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ExportDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("document_id", payload.DocumentID),
		slog.Uint64("user_id", uint64(payload.OwnerID)),
	)
	log.Info("Starting document export task...")

	var doc database.Document
	err := h.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", payload.DocumentID, payload.OwnerID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("document not found, skipping task")
			return nil
		}
		log.Error("query document failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !errors.Is(retErr, asynq.SkipRetry) && !isFinalAsynqAttempt(ctx) {
			return
		}
		metrics.ObserveExport(doc.Kind, metrics.ExportFailed)
		msg := strings.TrimSpace(retErr.Error())
		if err := h.setStatus(ctx, &doc, map[string]any{
			"export_status": database.ExportFailed,
			"export_error":  truncate(msg, 512),
		}); err != nil {
			log.Error("mark export failed", slog.Any("error", err))
		}
		notify := ExportNotifyMessage{
			Status:        "error",
			DocumentID:    doc.ID,
			DocumentType:  doc.Kind,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  msg,
		}
		if err := publishNotify(ctx, h.publisher, doc.OwnerID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	if err := h.setStatus(ctx, &doc, map[string]any{"export_status": database.ExportProcessing}); err != nil {
		log.Error("mark export processing failed", slog.Any("error", err))
		return err
	}

	in := export.InputFor(&doc)
	var missingKeys []string
	if key := strings.TrimSpace(in.Data.PersonalInfo.PhotoKey); key != "" {
		photo, err := export.InlinePhoto(ctx, h.objects, key)
		if err != nil {
			log.Warn("photo unavailable, exporting without it", slog.String("key", key), slog.Any("error", err))
			missingKeys = append(missingKeys, key)
		} else {
			in.PhotoURL = photo
		}
	}

	out, err := render.Render(in, render.Options{
		Locale: locale.Parse(payload.Locale),
		Mode:   render.ModeExport,
	})
	if err != nil {
		log.Error("render document failed", slog.Any("error", err))
		return fmt.Errorf("%w: render document: %v", asynq.SkipRetry, err)
	}

	pdfBytes, err := h.engine.PDF(ctx, out.HTML)
	if err != nil {
		log.Error("generate pdf failed", slog.Any("error", err))
		return err
	}

	pdfKey := storage.ExportPDFKey(doc.OwnerID, doc.Kind, doc.ID)
	if _, err := h.objects.UploadFile(ctx, pdfKey, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"export_status":  database.ExportCompleted,
		"pdf_object_key": pdfKey,
		"export_error":   "",
	}
	if thumbKey, err := h.thumbnail(ctx, &doc, out.HTML); err != nil {
		log.Warn("generate document thumbnail failed", slog.Any("error", err))
	} else {
		update["thumbnail_key"] = thumbKey
	}

	if err := h.setStatus(ctx, &doc, update); err != nil {
		log.Error("update document failed", slog.Any("error", err))
		return err
	}
	metrics.ObserveExport(doc.Kind, metrics.ExportCompleted)

	notify := ExportNotifyMessage{
		Status:        "completed",
		DocumentID:    doc.ID,
		DocumentType:  doc.Kind,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if len(missingKeys) > 0 {
		notify.ErrorCode = errcode.ResourceMissing
		notify.ErrorMessage = "profile photo missing or invalid, exported without it"
		notify.MissingKeys = missingKeys
	}
	if err := publishNotify(ctx, h.publisher, doc.OwnerID, notify); err != nil {
		// 文件已生成，前端可以通过轮询拿到结果，不再重试整个导出。
		log.Error("publish redis notification failed", slog.Any("error", err))
	}

	log.Info("Document export task completed successfully.")
	return nil
}

func (h *ExportTaskHandler) thumbnail(ctx context.Context, doc *database.Document, html string) (string, error) {
	shot, err := h.engine.Screenshot(ctx, html)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	thumb, err := export.Thumbnail(shot, h.thumbnailWidth)
	if err != nil {
		return "", err
	}
	key := storage.ExportThumbnailKey(doc.OwnerID, doc.Kind, doc.ID)
	if _, err := h.objects.UploadFile(ctx, key, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}
	return key, nil
}

// setStatus 只写导出相关的列，不触碰 last_edited。
func (h *ExportTaskHandler) setStatus(ctx context.Context, doc *database.Document, cols map[string]any) error {
	return h.db.WithContext(ctx).
		Model(&database.Document{}).
		Where("id = ?", doc.ID).
		UpdateColumns(cols).Error
}

// truncate 按字节截断，并退回到 rune 边界，保证写库的是合法 UTF-8。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
