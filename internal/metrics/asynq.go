package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Task outcomes.
const (
	TaskSucceeded = "succeeded"
	TaskRetried   = "retried"
	TaskSkipped   = "skipped"
)

var (
	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "任务耗时（秒）。",
			Buckets:   []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"task_type"},
	)

	taskTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "任务处理次数，按任务类型与结果区分。",
		},
		[]string{"task_type", "queue", "outcome"},
	)

	taskInProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_in_progress",
			Help:      "当前正在处理的任务数量。",
		},
		[]string{"task_type"},
	)
)

// TaskOutcome 把处理结果归类：SkipRetry 视为放弃，其余错误会被 asynq 重试。
func TaskOutcome(err error) string {
	switch {
	case err == nil:
		return TaskSucceeded
	case errors.Is(err, asynq.SkipRetry):
		return TaskSkipped
	default:
		return TaskRetried
	}
}

// AsynqMetricsMiddleware 记录导出、模板缩略图与统计刷新任务的处理指标。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	Register()

	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			queue, _ := asynq.GetQueueName(ctx)
			if queue == "" {
				queue = "default"
			}

			taskInProgress.WithLabelValues(taskType).Inc()
			defer taskInProgress.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			taskTotal.WithLabelValues(taskType, queue, TaskOutcome(err)).Inc()
			return err
		})
	}
}
