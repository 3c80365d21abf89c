package export

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cvforge/internal/database"
	"cvforge/internal/document"
)

// Tracker 记录文档下载。
type Tracker struct {
	db *gorm.DB
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

// TrackDownload 在单条 UPDATE 中完成计数加一、置 is_downloaded、写最后下载时间，
// 原子性交给数据库保证。文档不存在或不属于 ownerID 时返回 document.ErrNotFound。
// 使用 UpdateColumns，下载不算编辑，不刷新 last_edited。
func (t *Tracker) TrackDownload(ctx context.Context, ownerID uint, kind document.Kind, id string, now time.Time) error {
	res := t.db.WithContext(ctx).
		Model(&database.Document{}).
		Where("id = ? AND owner_id = ? AND kind = ?", id, ownerID, string(kind)).
		UpdateColumns(map[string]any{
			"download_count":     gorm.Expr("download_count + 1"),
			"is_downloaded":      true,
			"last_downloaded_at": now.UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("track download %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return document.ErrNotFound
	}
	return nil
}
