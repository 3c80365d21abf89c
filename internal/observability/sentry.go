package observability

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry 在配置了 DSN 时初始化 Sentry，返回 true 表示已启用。
func InitSentry(dsn, environment string) (bool, error) {
	if strings.TrimSpace(dsn) == "" {
		return false, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
	}); err != nil {
		return false, fmt.Errorf("init sentry: %w", err)
	}
	return true, nil
}

// FlushSentry 等待未发送的事件。
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError 上报一个错误；未初始化时 sentry 会静默丢弃。
func CaptureError(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}
