package render

import "cvforge/internal/document"

// Sample 返回用于模板画廊缩略图的空白文档，预览模式下会被示例内容填满，
// 强调色和字体使用主题自带的默认值。
func Sample(kind document.Kind, template string) Input {
	layout := document.DefaultLayout(kind)
	layout.Template = template
	layout.AccentColor = ""
	layout.FontFamily = ""
	return Input{Kind: kind, Title: template, Layout: layout}
}
