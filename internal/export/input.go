package export

import (
	"context"
	"encoding/base64"
	"html/template"
	"net/http"
	"strings"

	"cvforge/internal/database"
	"cvforge/internal/document"
	"cvforge/internal/render"
)

// MaxInlinePhotoBytes 是内联进导出 HTML 的头像大小上限。
const MaxInlinePhotoBytes = 5 << 20

// ObjectReader 读取对象存储中的私有对象。
type ObjectReader interface {
	ReadObject(ctx context.Context, objectKey string, limit int64) ([]byte, string, error)
}

// InputFor 把持久化的文档转成渲染输入，头像地址由调用方另行填入。
func InputFor(doc *database.Document) render.Input {
	return render.Input{
		Kind:   document.Kind(doc.Kind),
		Title:  doc.Title,
		Data:   doc.Data.Data(),
		Layout: doc.Layout(),
	}
}

// InlinePhoto 读取头像并编码为 data URI，这样无头浏览器无需访问对象存储。
func InlinePhoto(ctx context.Context, objects ObjectReader, key string) (template.URL, error) {
	body, contentType, err := objects.ReadObject(ctx, key, MaxInlinePhotoBytes)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(body)
	}
	return template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)), nil
}
