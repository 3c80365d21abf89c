package document

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// 内置区块 ID。自定义区块统一使用 CustomPrefix 前缀。
const (
	SectionPersonalInfo = "personal-info"
	SectionProfile      = "profile"
	SectionEducation    = "education"
	SectionExperience   = "experience"
	SectionSkills       = "skills"
	SectionLanguages    = "languages"
	SectionInterests    = "interests"
	SectionReferences   = "references"
	SectionSocials      = "socials"

	SectionRecipient        = "recipient"
	SectionDateSubject      = "date-subject"
	SectionIntroduction     = "introduction"
	SectionCurrentSituation = "current-situation"
	SectionMotivation       = "motivation"
	SectionConclusion       = "conclusion"

	CustomPrefix = "custom-"
)

var (
	cvSections = []string{
		SectionPersonalInfo,
		SectionProfile,
		SectionExperience,
		SectionEducation,
		SectionSkills,
		SectionLanguages,
		SectionInterests,
		SectionReferences,
		SectionSocials,
	}
	coverLetterSections = []string{
		SectionPersonalInfo,
		SectionRecipient,
		SectionDateSubject,
		SectionIntroduction,
		SectionCurrentSituation,
		SectionMotivation,
		SectionConclusion,
	}

	builtin = map[Kind]mapset.Set[string]{
		KindCV:          mapset.NewSet(cvSections...),
		KindCoverLetter: mapset.NewSet(coverLetterSections...),
	}
)

// BuiltinSections 返回某类文档的默认区块顺序（副本）。
func BuiltinSections(kind Kind) []string {
	var src []string
	if kind == KindCoverLetter {
		src = coverLetterSections
	} else {
		src = cvSections
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// IsBuiltin 判断 id 是否为该类文档的内置区块。
func IsBuiltin(kind Kind, id string) bool {
	set, ok := builtin[kind]
	return ok && set.Contains(id)
}

// IsCustom 判断 id 是否为自定义区块。
func IsCustom(id string) bool {
	return strings.HasPrefix(id, CustomPrefix) && len(id) > len(CustomPrefix)
}
