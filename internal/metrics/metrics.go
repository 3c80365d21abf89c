package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cvforge"

// Export outcomes.
const (
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

var (
	registerOnce sync.Once

	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "documents_total",
			Help:      "文档导出次数，按类型与结果区分。",
		},
		[]string{"document_type", "outcome"},
	)

	downloadsTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "downloads_tracked_total",
			Help:      "成功记录的下载次数。",
		},
		[]string{"document_type"},
	)

	gateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "gate_decisions_total",
			Help:      "下载权限判定结果。",
		},
		[]string{"content_type", "allowed"},
	)
)

// Register 把 HTTP、任务与业务指标注册到默认 Registry，多次调用只生效一次。
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			requestDuration, requestTotal, requestsInFlight,
			taskDuration, taskTotal, taskInProgress,
			exportsTotal, downloadsTracked, gateDecisions,
		)
	})
}

// ObserveExport 记录一次导出结果。
func ObserveExport(documentType, outcome string) {
	exportsTotal.WithLabelValues(documentType, outcome).Inc()
}

// ObserveDownload 记录一次下载统计。
func ObserveDownload(documentType string) {
	downloadsTracked.WithLabelValues(documentType).Inc()
}

// ObserveGate 记录订阅闸门的判定。
func ObserveGate(contentType string, allowed bool) {
	gateDecisions.WithLabelValues(contentType, boolLabel(allowed)).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
