package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"cvforge/internal/document"
)

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时（秒），按路由与文档类型区分。",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route", "document_type"},
	)

	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数。",
		},
		[]string{"method", "route", "document_type", "status"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "当前正在处理的 HTTP 请求数量。",
		},
	)
)

// GinMiddleware 采集请求指标，未匹配的路由记为 "unmatched"。
func GinMiddleware() gin.HandlerFunc {
	Register()

	return func(c *gin.Context) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		kind := documentTypeLabel(c.Param("type"))

		requestDuration.WithLabelValues(c.Request.Method, route, kind).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(c.Request.Method, route, kind, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// documentTypeLabel 只接受已知的文档类型，其余为空串。
func documentTypeLabel(raw string) string {
	kind, err := document.ParseKind(raw)
	if err != nil {
		return ""
	}
	return kind.String()
}
