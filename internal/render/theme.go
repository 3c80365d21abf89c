package render

import "sort"

// Theme 描述一个模板变体的视觉参数。所有变体共用同一张区块分发表，
// 差异只体现在这些字段上。
type Theme struct {
	Name string `json:"name"`
	// Layout 为 "full" 或 "sidebar"。
	Layout string `json:"layout"`
	// SidebarSections 是 sidebar 布局下放进侧栏的区块。
	SidebarSections []string `json:"sidebarSections,omitempty"`
	// HeaderStyle: banner | centered | left | split
	HeaderStyle string `json:"headerStyle"`
	// AccentMode: text | band | fill
	AccentMode    string `json:"accentMode"`
	Icons         bool   `json:"icons"`
	Compact       bool   `json:"compact"`
	RepeatHeader  bool   `json:"repeatHeader"`
	DefaultAccent string `json:"defaultAccent"`
	DefaultFont   string `json:"defaultFont"`
}

const fallbackTheme = "classic"

var sidebarDefaults = []string{"personal-info", "skills", "languages", "interests", "socials", "references"}

var themes = map[string]Theme{
	"classic": {
		Name: "classic", Layout: "full", HeaderStyle: "left", AccentMode: "text",
		DefaultAccent: "#2563eb", DefaultFont: "Inter",
	},
	"modern": {
		Name: "modern", Layout: "sidebar", SidebarSections: sidebarDefaults,
		HeaderStyle: "left", AccentMode: "fill", Icons: true, RepeatHeader: true,
		DefaultAccent: "#0f766e", DefaultFont: "Poppins",
	},
	"minimal": {
		Name: "minimal", Layout: "full", HeaderStyle: "centered", AccentMode: "text",
		DefaultAccent: "#111827", DefaultFont: "Helvetica",
	},
	"elegant": {
		Name: "elegant", Layout: "full", HeaderStyle: "centered", AccentMode: "band",
		RepeatHeader: true, DefaultAccent: "#7c2d12", DefaultFont: "Playfair Display",
	},
	"creative": {
		Name: "creative", Layout: "sidebar", SidebarSections: sidebarDefaults,
		HeaderStyle: "banner", AccentMode: "fill", Icons: true,
		DefaultAccent: "#db2777", DefaultFont: "Montserrat",
	},
	"professional": {
		Name: "professional", Layout: "full", HeaderStyle: "banner", AccentMode: "band",
		Icons: true, RepeatHeader: true, DefaultAccent: "#1e3a8a", DefaultFont: "Roboto",
	},
	"compact": {
		Name: "compact", Layout: "full", HeaderStyle: "split", AccentMode: "text",
		Compact: true, DefaultAccent: "#374151", DefaultFont: "Source Sans Pro",
	},
	"executive": {
		Name: "executive", Layout: "full", HeaderStyle: "split", AccentMode: "band",
		RepeatHeader: true, DefaultAccent: "#0b3d2e", DefaultFont: "Merriweather",
	},
	"sidebar": {
		Name: "sidebar", Layout: "sidebar",
		SidebarSections: []string{"personal-info", "skills", "languages", "interests"},
		HeaderStyle: "left", AccentMode: "fill", Icons: true, RepeatHeader: true,
		DefaultAccent: "#4338ca", DefaultFont: "Lato",
	},
}

// Lookup 返回指定名称的主题，未知名称回退到 classic。
func Lookup(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[fallbackTheme]
}

// Known 判断模板名称是否存在。
func Known(name string) bool {
	_, ok := themes[name]
	return ok
}

// Gallery 按名称排序返回全部模板变体。
func Gallery() []Theme {
	out := make([]Theme, 0, len(themes))
	for _, t := range themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (t Theme) inSidebar(id string) bool {
	if t.Layout != "sidebar" {
		return false
	}
	for _, s := range t.SidebarSections {
		if s == id {
			return true
		}
	}
	return false
}
