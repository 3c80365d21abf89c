package api

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cvforge/internal/api/middleware"
	"cvforge/internal/storage"
)

const (
	defaultMaxPhotoBytes    = 5 << 20
	defaultMaxUploadsPerDay = 30
)

// photoExtensions 把允许的扩展名映射到 MIME 类型。
var photoExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// extensionFor 返回 MIME 类型对应的规范扩展名。
func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// AssetHandler 负责头像上传与访问。
type AssetHandler struct {
	Storage          ObjectStorage
	Scanner          VirusScanner
	MaxBytes      int64
	MIMEWhitelist []string
	uploads       *windowLimiter
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(storageClient ObjectStorage, scanner VirusScanner, counter rateCounter) *AssetHandler {
	return &AssetHandler{
		Storage:       storageClient,
		Scanner:       scanner,
		MaxBytes:      defaultMaxPhotoBytes,
		MIMEWhitelist: []string{"image/png", "image/jpeg", "image/webp"},
		uploads:       newWindowLimiter(counter, "rate:upload:", 24*time.Hour, defaultMaxUploadsPerDay),
	}
}

// UploadAsset 处理头像上传：校验大小与类型，扫描病毒后写入对象存储。
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	log := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size <= 0 || file.Size > h.MaxBytes {
		BadRequest(c, "file too large")
		return
	}

	contentType, err := sniff(file)
	if err != nil {
		Internal(c, log, "read upload failed", err)
		return
	}
	if !h.allowed(contentType) {
		BadRequest(c, "unsupported file type")
		return
	}

	if !h.uploads.Allow(c.Request.Context(), strconv.FormatUint(uint64(userID), 10), time.Now()) {
		TooManyRequests(c, "daily upload limit reached")
		return
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, log, "open upload failed", err)
		return
	}
	err = h.Scanner.Scan(reader)
	reader.Close()
	if errors.Is(err, ErrInfected) {
		log.Warn("infected upload rejected")
		BadRequest(c, "malicious file detected")
		return
	}
	if err != nil {
		Internal(c, log, "scan upload failed", err)
		return
	}

	reader, err = file.Open()
	if err != nil {
		Internal(c, log, "reopen upload failed", err)
		return
	}
	defer reader.Close()

	objectKey := storage.UserPhotoPrefix(userID) + uuid.NewString() + extensionFor(contentType)
	if _, err := h.Storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType); err != nil {
		Internal(c, log, "upload photo failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey})
}

// GetAssetURL 返回头像的临时预签名 URL。不属于当前用户的 key 按不存在处理。
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}
	if !isValidUserPhotoKey(userID, objectKey) {
		NotFound(c, "asset not found")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(c.Request.Context(), objectKey, photoURLTTL)
	if err != nil {
		Internal(c, middleware.LoggerFromContext(c), "generate presigned url failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *AssetHandler) allowed(contentType string) bool {
	for _, m := range h.MIMEWhitelist {
		if m == contentType {
			return true
		}
	}
	return false
}

// sniff 根据文件头判断真实类型，不信任客户端的 Content-Type。
func sniff(file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
