package render

import (
	"strings"

	"cvforge/internal/document"
)

// strategy 描述一个区块如何渲染：使用哪个模板块、正文取自哪里、何时视为空。
type strategy struct {
	block string
	text  func(d document.Data) string
	empty func(d document.Data) bool
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func prose(get func(d document.Data) string) strategy {
	return strategy{
		block: "prose",
		text:  get,
		empty: func(d document.Data) bool { return blank(get(d)) },
	}
}

// sections 是唯一的区块分发表。新增区块类型只需要在这里加一行和一个模板块。
var sections = map[string]strategy{
	document.SectionPersonalInfo: {
		block: "personal-info",
		empty: func(document.Data) bool { return false },
	},
	document.SectionProfile: prose(func(d document.Data) string { return d.Profile }),
	document.SectionEducation: {
		block: "education",
		empty: func(d document.Data) bool { return len(d.Education) == 0 },
	},
	document.SectionExperience: {
		block: "experience",
		empty: func(d document.Data) bool { return len(d.Experience) == 0 },
	},
	document.SectionSkills: {
		block: "skills",
		empty: func(d document.Data) bool { return len(d.Skills) == 0 },
	},
	document.SectionLanguages: {
		block: "languages",
		empty: func(d document.Data) bool { return len(d.Languages) == 0 },
	},
	document.SectionInterests: {
		block: "interests",
		empty: func(d document.Data) bool { return len(d.Interests) == 0 },
	},
	document.SectionReferences: {
		block: "references",
		empty: func(d document.Data) bool { return len(d.References) == 0 },
	},
	document.SectionSocials: {
		block: "socials",
		empty: func(d document.Data) bool { return len(d.Socials) == 0 },
	},
	document.SectionRecipient: {
		block: "recipient",
		empty: func(d document.Data) bool {
			r := d.Recipient
			return blank(r.Company) && blank(r.Name) && blank(r.Address) && blank(r.City) && blank(r.PostalCode)
		},
	},
	document.SectionDateSubject: {
		block: "date-subject",
		empty: func(d document.Data) bool {
			m := d.LetterMeta
			return blank(m.Date) && blank(m.Subject) && blank(m.Location)
		},
	},
	document.SectionIntroduction:     prose(func(d document.Data) string { return d.Introduction }),
	document.SectionCurrentSituation: prose(func(d document.Data) string { return d.CurrentSituation }),
	document.SectionMotivation:       prose(func(d document.Data) string { return d.Motivation }),
	document.SectionConclusion:       prose(func(d document.Data) string { return d.Conclusion }),
}

var customStrategy = strategy{block: "custom"}

// lookupStrategy 返回区块的渲染策略。自定义前缀或出现在 CustomSections 中的 id
// 按通用富文本渲染；其余未知 id 返回 false，由调用方跳过。
func lookupStrategy(id string, d document.Data) (strategy, bool) {
	if s, ok := sections[id]; ok {
		return s, true
	}
	if _, ok := d.CustomSections[id]; ok || document.IsCustom(id) {
		return customStrategy, true
	}
	return strategy{}, false
}
