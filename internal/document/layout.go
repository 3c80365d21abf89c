package document

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	DefaultTemplate    = "classic"
	DefaultAccentColor = "#2563eb"
	DefaultFontFamily  = "Inter"
)

// Layout 描述文档的外观与区块编排。
type Layout struct {
	Template    string `json:"template"`
	AccentColor string `json:"accentColor"`
	FontFamily  string `json:"fontFamily"`
	// SectionOrder 决定区块在页面内的纵向顺序，每个 id 至多出现一次。
	SectionOrder []string `json:"sectionOrder"`
	// SectionPages 把区块分配到第 1 或第 2 页，缺省视为第 1 页。
	SectionPages map[string]int `json:"sectionPages,omitempty"`
	// CustomSectionNames 覆盖内置的区块标题。
	CustomSectionNames map[string]string `json:"customSectionNames,omitempty"`
}

// DefaultLayout 返回新建文档使用的布局。
func DefaultLayout(kind Kind) Layout {
	return Layout{
		Template:           DefaultTemplate,
		AccentColor:        DefaultAccentColor,
		FontFamily:         DefaultFontFamily,
		SectionOrder:       BuiltinSections(kind),
		SectionPages:       map[string]int{},
		CustomSectionNames: map[string]string{},
	}
}

// Normalize 在保存前整理布局：
//   - SectionOrder 去重并保留首次出现的位置，丢弃空 id；
//   - SectionPages 仅保留出现在 SectionOrder 中且取值为 1 或 2 的条目；
//   - CustomSectionNames 丢弃空白标题。
//
// 返回新的 Layout，不修改入参。
func Normalize(in Layout) Layout {
	out := Layout{
		Template:           strings.TrimSpace(in.Template),
		AccentColor:        strings.TrimSpace(in.AccentColor),
		FontFamily:         strings.TrimSpace(in.FontFamily),
		SectionOrder:       make([]string, 0, len(in.SectionOrder)),
		SectionPages:       make(map[string]int, len(in.SectionPages)),
		CustomSectionNames: make(map[string]string, len(in.CustomSectionNames)),
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, id := range in.SectionOrder {
		id = strings.TrimSpace(id)
		if id == "" || seen.Contains(id) {
			continue
		}
		seen.Add(id)
		out.SectionOrder = append(out.SectionOrder, id)
	}

	for id, page := range in.SectionPages {
		if !seen.Contains(id) {
			continue
		}
		if page != 1 && page != 2 {
			continue
		}
		out.SectionPages[id] = page
	}

	for id, name := range in.CustomSectionNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out.CustomSectionNames[id] = name
	}

	return out
}

// Merge 用 patch 中非零的字段覆盖 base，供 PUT 局部更新使用。
func Merge(base, patch Layout) Layout {
	if patch.Template != "" {
		base.Template = patch.Template
	}
	if patch.AccentColor != "" {
		base.AccentColor = patch.AccentColor
	}
	if patch.FontFamily != "" {
		base.FontFamily = patch.FontFamily
	}
	if patch.SectionOrder != nil {
		base.SectionOrder = patch.SectionOrder
	}
	if patch.SectionPages != nil {
		base.SectionPages = patch.SectionPages
	}
	if patch.CustomSectionNames != nil {
		base.CustomSectionNames = patch.CustomSectionNames
	}
	return base
}
