// Package locale 负责界面语言协商以及内置区块标题。
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale 是受支持的界面语言。
type Locale string

const (
	EN Locale = "en"
	FR Locale = "fr"

	Default = EN
)

var (
	supported = []Locale{EN, FR}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.French})
)

// Supported 返回受支持的语言列表。
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// Parse 解析单个语言标签（"fr", "fr-CA", "en_US"），无法识别时回退到 Default。
func Parse(raw string) Locale {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return Default
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return Default
	}
	return fromTag(tag)
}

// Negotiate 根据 Accept-Language 头选择最合适的语言。
func Negotiate(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return supported[idx]
}

func fromTag(tag language.Tag) Locale {
	base, _ := tag.Base()
	for _, loc := range supported {
		if base.String() == string(loc) {
			return loc
		}
	}
	return Default
}
