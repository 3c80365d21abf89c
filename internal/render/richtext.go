package render

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// customPolicy 只保留段落、强调、列表与链接。
var customPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "b", "strong", "i", "em", "u", "ul", "ol", "li")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// richText 清洗自定义分区的富文本；不含标签的内容按换行拆成段落。
func richText(s string) template.HTML {
	if !strings.Contains(s, "<") {
		var b strings.Builder
		for _, para := range paragraphs(s) {
			b.WriteString("<p>")
			b.WriteString(template.HTMLEscapeString(para))
			b.WriteString("</p>")
		}
		return template.HTML(b.String())
	}
	return template.HTML(customPolicy.Sanitize(s))
}
