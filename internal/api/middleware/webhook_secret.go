package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvforge/internal/errcode"
)

// WebhookSecretHeader 承载支付回调的共享密钥。
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecretMiddleware 以常量时间比较校验支付回调的共享密钥。
func WebhookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(secret) == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook secret is not configured", "code": errcode.ServerError})
			return
		}
		// 密钥只从 Header 读取，避免 query 泄露到日志。
		token := strings.TrimSpace(c.GetHeader(WebhookSecretHeader))
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": errcode.Unauthenticated})
			return
		}
		c.Next()
	}
}
