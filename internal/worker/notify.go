package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// ExportNotifyMessage 是通过 Redis Pub/Sub 转发给前端 WebSocket 的导出结果。
// 字段名与前端解析保持一致。
type ExportNotifyMessage struct {
	Status        string   `json:"status"`
	DocumentID    string   `json:"documentId"`
	DocumentType  string   `json:"documentType"`
	CorrelationID string   `json:"correlationId"`
	ErrorCode     int      `json:"errorCode"`
	ErrorMessage  string   `json:"errorMessage"`
	MissingKeys   []string `json:"missingKeys,omitempty"`
}

// Publisher 是 redis.Client 的发布子集。
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// NotifyChannel 返回用户的通知频道。
func NotifyChannel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

func publishNotify(ctx context.Context, pub Publisher, userID uint, msg ExportNotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(userID)
	if err := pub.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
