package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportDocument   = "export:document"
	TypeTemplatePreview  = "template:preview"
	TypeAnalyticsRefresh = "analytics:refresh"
)

// 导出任务的重试与超时策略；浏览器引擎本身不做重试。
const (
	exportMaxRetry = 3
	exportTimeout  = 2 * time.Minute
)

// ExportDocumentPayload 描述导出单个文档所需的最小信息。
type ExportDocumentPayload struct {
	DocumentID    string `json:"document_id"`
	OwnerID       uint   `json:"owner_id"`
	Kind          string `json:"kind"`
	Locale        string `json:"locale"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportDocumentTask 构造一个新的文档导出任务。
func NewExportDocumentTask(p ExportDocumentPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportDocument, payload,
		asynq.MaxRetry(exportMaxRetry),
		asynq.Timeout(exportTimeout),
	), nil
}

// TemplatePreviewPayload identifies one gallery thumbnail to (re)generate.
type TemplatePreviewPayload struct {
	Template      string `json:"template"`
	Kind          string `json:"kind"`
	CorrelationID string `json:"correlation_id"`
}

func NewTemplatePreviewTask(p TemplatePreviewPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTemplatePreview, payload, asynq.MaxRetry(exportMaxRetry)), nil
}

// NewAnalyticsRefreshTask 构造周期性的统计刷新任务，不携带负载。
func NewAnalyticsRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeAnalyticsRefresh, nil, asynq.MaxRetry(1))
}
