package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvforge/internal/document"
	"cvforge/internal/errcode"
	"cvforge/internal/observability"
)

// Error 写出统一的错误响应 {"error": msg, "code": code}。
func Error(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": errcode.Unauthenticated})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, errcode.Unauthenticated, "unauthorized")
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, errcode.ValidationError, msg)
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, http.StatusForbidden, errcode.Forbidden, msg)
}

func NotFound(c *gin.Context, msg string) {
	Error(c, http.StatusNotFound, errcode.NotFound, msg)
}

func Conflict(c *gin.Context, msg string) {
	Error(c, http.StatusConflict, errcode.ValidationError, msg)
}

func TooManyRequests(c *gin.Context, msg string) {
	Error(c, http.StatusTooManyRequests, errcode.ValidationError, msg)
}

// Internal 记录错误详情，只向客户端返回笼统信息。
func Internal(c *gin.Context, log *slog.Logger, msg string, err error) {
	if err != nil {
		log.Error(msg, slog.Any("error", err))
		observability.CaptureError(err)
	}
	Error(c, http.StatusInternalServerError, errcode.ServerError, "internal error")
}

// ValidationFailed 返回字段级校验错误。
func ValidationFailed(c *gin.Context, err error) {
	var verr *document.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"code":   errcode.ValidationError,
			"fields": verr.Fields,
		})
		return
	}
	BadRequest(c, err.Error())
}
