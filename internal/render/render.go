// Package render 把文档数据渲染为分页的 HTML。Render 是纯函数：
// 输出只取决于入参，不读写任何包级可变状态。
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"cvforge/internal/document"
	"cvforge/internal/locale"
	"cvforge/internal/placeholder"
)

// Mode 控制是否填充示例内容。
type Mode string

const (
	ModePreview Mode = "preview"
	ModeExport  Mode = "export"
)

// ErrInvalidInput 表示输入无法渲染（如非法的强调色）。
var ErrInvalidInput = errors.New("render: invalid input")

//go:embed templates/*.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.New("render").Funcs(template.FuncMap{
	"paragraphs": paragraphs,
	"levels":     levels,
	"richtext":   richText,
}).ParseFS(templateFS, "templates/*.tmpl"))

var (
	accentPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	fontPattern   = regexp.MustCompile(`^[A-Za-z0-9 \-]{1,64}$`)
)

// Input 是一次渲染所需的全部文档内容。
type Input struct {
	Kind   document.Kind
	Title  string
	Data   document.Data
	Layout document.Layout
	// PhotoURL 由调用方把 PersonalInfo.PhotoKey 换成可访问的地址
	// （预签名链接或 data URI），视为可信内容。
	PhotoURL template.URL
}

// Options 控制渲染行为。
type Options struct {
	Locale locale.Locale
	Mode   Mode
	// Previous 是调用方持有的上一次成功结果。新输入无法渲染时原样返回它
	// （Stale 置为 true），避免界面在编辑过程中闪成空白。
	Previous *Rendered
}

// Rendered 是渲染结果：结构化的分页模型加完整 HTML 文档。
type Rendered struct {
	Template string        `json:"template"`
	Locale   locale.Locale `json:"locale"`
	Mode     Mode          `json:"mode"`
	Stale    bool          `json:"stale"`
	Pages    []Page        `json:"pages"`
	HTML     string        `json:"html"`
}

type Page struct {
	Number   int       `json:"number"`
	Sections []Section `json:"sections"`
}

type Section struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	HTML     template.HTML `json:"html"`
	Repeated bool          `json:"repeated,omitempty"`
}

// sectionView 是单个区块模板的数据。
type sectionView struct {
	ID       string
	Title    string
	Text     string
	Data     document.Data
	Custom   document.CustomSection
	Theme    Theme
	PhotoURL template.URL
	Present  string
}

type pageView struct {
	Number  int
	Main    []Section
	Sidebar []Section
}

type documentView struct {
	Title  string
	Lang   string
	Theme  Theme
	Accent template.CSS
	Font   template.CSS
	Pages  []pageView
}

// Render 渲染文档。输入不合法时：若 opts.Previous 非空则返回其副本并标记 Stale，
// 否则返回 ErrInvalidInput。
func Render(in Input, opts Options) (*Rendered, error) {
	if err := checkInput(in); err != nil {
		if opts.Previous != nil {
			prev := *opts.Previous
			prev.Stale = true
			return &prev, nil
		}
		return nil, err
	}

	loc := opts.Locale
	if loc == "" {
		loc = locale.Default
	}
	mode := opts.Mode
	if mode != ModeExport {
		mode = ModePreview
	}

	theme := Lookup(in.Layout.Template)
	accent := in.Layout.AccentColor
	if accent == "" {
		accent = theme.DefaultAccent
	}
	font := in.Layout.FontFamily
	if font == "" {
		font = theme.DefaultFont
	}

	data := in.Data
	if mode == ModePreview {
		data = placeholder.Apply(data, in.Kind, loc)
	}

	order := in.Layout.SectionOrder
	if len(order) == 0 {
		order = document.BuiltinSections(in.Kind)
	}
	page1, page2 := Paginate(order, in.Layout.SectionPages)

	base := sectionView{
		Data:     data,
		Theme:    theme,
		PhotoURL: in.PhotoURL,
		Present:  locale.Label("present", loc),
	}

	out := &Rendered{Template: theme.Name, Locale: loc, Mode: mode}

	first, err := renderSections(page1, in, base, loc)
	if err != nil {
		return nil, err
	}
	out.Pages = append(out.Pages, Page{Number: 1, Sections: first})

	second, err := renderSections(page2, in, base, loc)
	if err != nil {
		return nil, err
	}
	// 第二页的分区全部为空时不输出第二页，否则 PDF 会多出一张白页。
	if len(second) > 0 {
		if theme.RepeatHeader && contains(page1, document.SectionPersonalInfo) {
			header, err := renderSections([]string{document.SectionPersonalInfo}, in, base, loc)
			if err != nil {
				return nil, err
			}
			for i := range header {
				header[i].Repeated = true
			}
			second = append(header, second...)
		}
		out.Pages = append(out.Pages, Page{Number: 2, Sections: second})
	}

	view := documentView{
		Title:  in.Title,
		Lang:   string(loc),
		Theme:  theme,
		Accent: template.CSS(accent),
		Font:   template.CSS(font),
	}
	for _, p := range out.Pages {
		pv := pageView{Number: p.Number}
		for _, s := range p.Sections {
			if theme.inSidebar(s.ID) {
				pv.Sidebar = append(pv.Sidebar, s)
			} else {
				pv.Main = append(pv.Main, s)
			}
		}
		view.Pages = append(view.Pages, pv)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "document", view); err != nil {
		return nil, fmt.Errorf("execute document template: %w", err)
	}
	out.HTML = buf.String()
	return out, nil
}

func renderSections(ids []string, in Input, base sectionView, loc locale.Locale) ([]Section, error) {
	out := make([]Section, 0, len(ids))
	for _, id := range ids {
		strat, ok := lookupStrategy(id, base.Data)
		if !ok {
			continue
		}

		view := base
		view.ID = id
		view.Title = title(id, in.Layout, base.Data, loc)
		if strat.block == customStrategy.block {
			view.Custom = base.Data.CustomSections[id]
			if blank(view.Custom.Content) {
				continue
			}
		} else if strat.empty(base.Data) {
			continue
		}
		if strat.text != nil {
			view.Text = strat.text(base.Data)
		}

		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, strat.block, view); err != nil {
			return nil, fmt.Errorf("execute section %s: %w", id, err)
		}
		out = append(out, Section{ID: id, Title: view.Title, HTML: template.HTML(buf.String())})
	}
	return out, nil
}

// title: 用户自定义名称优先，其次是自定义区块自带的标题，最后是内置的本地化标题。
func title(id string, layout document.Layout, d document.Data, loc locale.Locale) string {
	if name, ok := layout.CustomSectionNames[id]; ok && !blank(name) {
		return name
	}
	if c, ok := d.CustomSections[id]; ok && !blank(c.Title) {
		return c.Title
	}
	if _, ok := sections[id]; !ok {
		return locale.Label("custom", loc)
	}
	return locale.Label(id, loc)
}

func checkInput(in Input) error {
	if _, err := document.ParseKind(string(in.Kind)); err != nil {
		return fmt.Errorf("%w: kind %q", ErrInvalidInput, in.Kind)
	}
	if c := in.Layout.AccentColor; c != "" && !accentPattern.MatchString(c) {
		return fmt.Errorf("%w: accent color %q", ErrInvalidInput, c)
	}
	if f := in.Layout.FontFamily; f != "" && !fontPattern.MatchString(f) {
		return fmt.Errorf("%w: font family %q", ErrInvalidInput, f)
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paragraphs(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// levels 把 0-5 的技能等级展开成 5 个刻度。
func levels(level int) []bool {
	out := make([]bool, 5)
	for i := range out {
		out[i] = i < level
	}
	return out
}
