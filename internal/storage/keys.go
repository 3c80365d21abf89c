package storage

import "fmt"

// 对象 key 布局：
//
//	exports/<owner>/<kind>/<documentID>.pdf
//	exports/<owner>/<kind>/<documentID>.jpg     首页缩略图
//	templates/<kind>/<template>.jpg             模板画廊缩略图
//	users/<owner>/photos/<uuid><ext>            用户上传的头像
const (
	exportsPrefix   = "exports"
	templatesPrefix = "templates"
	usersPrefix     = "users"
)

// ExportPrefix 返回某个文档全部导出产物的前缀。
func ExportPrefix(ownerID uint, kind, documentID string) string {
	return fmt.Sprintf("%s/%d/%s/%s", exportsPrefix, ownerID, kind, documentID)
}

func ExportPDFKey(ownerID uint, kind, documentID string) string {
	return ExportPrefix(ownerID, kind, documentID) + ".pdf"
}

func ExportThumbnailKey(ownerID uint, kind, documentID string) string {
	return ExportPrefix(ownerID, kind, documentID) + ".jpg"
}

func TemplatePreviewKey(kind, template string) string {
	return fmt.Sprintf("%s/%s/%s.jpg", templatesPrefix, kind, template)
}

// UserPhotoPrefix 是用户头像目录，带结尾斜杠。
func UserPhotoPrefix(ownerID uint) string {
	return fmt.Sprintf("%s/%d/photos/", usersPrefix, ownerID)
}
