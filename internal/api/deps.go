package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"cvforge/internal/api/middleware"
	"cvforge/internal/document"
	"cvforge/internal/subscription"
)

// ObjectStorage 是 handler 用到的对象存储能力，storage.Client 实现了它。
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	GeneratePresignedURLWithParams(ctx context.Context, objectKey string, duration time.Duration, params map[string]string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// TaskQueue 是 asynq.Client 的入队子集。
type TaskQueue interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DownloadGate 判断用户能否下载某类内容。
type DownloadGate interface {
	Status(ctx context.Context, userID uint, contentType string, now time.Time) (subscription.Status, error)
}

// ErrInfected 表示上传文件未通过病毒扫描。
var ErrInfected = errors.New("malicious file detected")

// VirusScanner 扫描上传内容。
type VirusScanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 扫描文件。
type ClamdScanner struct {
	addr string
}

func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{addr: addr}
}

func (s *ClamdScanner) Scan(r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := clamd.NewClamd(s.addr).ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	for result := range results {
		if result.Status != clamd.RES_OK {
			return ErrInfected
		}
	}
	return nil
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), v != 0
	default:
		return 0, false
	}
}

// kindFromParam 解析路径中的 :type。
func kindFromParam(c *gin.Context) (document.Kind, bool) {
	kind, err := document.ParseKind(c.Param("type"))
	if err != nil {
		return "", false
	}
	return kind, true
}
