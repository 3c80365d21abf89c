// Package placeholder 在预览时为空字段提供示例内容，保证模板不会渲染出空白区块。
// 替换只发生在返回的副本上，从不修改文档本身。
package placeholder

import (
	"maps"
	"slices"
	"strings"

	"cvforge/internal/document"
	"cvforge/internal/locale"
)

// Resolve 返回去除首尾空白后非空的 value，否则返回 (section, field, loc) 对应的示例值。
// 没有示例值的字段返回空串。
func Resolve(section, field, value string, loc locale.Locale) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	s, _ := catalogFor(loc)
	return s[section+"."+field]
}

// List 实现列表的整体替换：have 非空时原样返回副本，为空时返回 canned 的副本，
// 两者从不混合。
func List[T any](have, canned []T) []T {
	if len(have) > 0 {
		return slices.Clone(have)
	}
	return slices.Clone(canned)
}

// Apply 返回替换了示例内容的数据副本。BlankFields 中列出的字段保持为空。
func Apply(data document.Data, kind document.Kind, loc locale.Locale) document.Data {
	_, canned := catalogFor(loc)
	out := data
	out.CustomSections = maps.Clone(data.CustomSections)
	out.References = slices.Clone(data.References)
	out.Socials = slices.Clone(data.Socials)
	out.BlankFields = slices.Clone(data.BlankFields)

	scalar := func(section, field, value string) string {
		if data.IsBlank(section + "." + field) {
			return value
		}
		return Resolve(section, field, value, loc)
	}

	p := &out.PersonalInfo
	p.FirstName = scalar(document.SectionPersonalInfo, "firstName", p.FirstName)
	p.LastName = scalar(document.SectionPersonalInfo, "lastName", p.LastName)
	p.JobTitle = scalar(document.SectionPersonalInfo, "jobTitle", p.JobTitle)
	p.Email = scalar(document.SectionPersonalInfo, "email", p.Email)
	p.Phone = scalar(document.SectionPersonalInfo, "phone", p.Phone)
	p.Address = scalar(document.SectionPersonalInfo, "address", p.Address)
	p.City = scalar(document.SectionPersonalInfo, "city", p.City)
	p.PostalCode = scalar(document.SectionPersonalInfo, "postalCode", p.PostalCode)

	if kind == document.KindCoverLetter {
		r := &out.Recipient
		r.Company = scalar(document.SectionRecipient, "company", r.Company)
		r.Name = scalar(document.SectionRecipient, "name", r.Name)
		r.Address = scalar(document.SectionRecipient, "address", r.Address)
		r.City = scalar(document.SectionRecipient, "city", r.City)
		r.PostalCode = scalar(document.SectionRecipient, "postalCode", r.PostalCode)

		m := &out.LetterMeta
		m.Date = scalar(document.SectionDateSubject, "date", m.Date)
		m.Subject = scalar(document.SectionDateSubject, "subject", m.Subject)
		m.Location = scalar(document.SectionDateSubject, "location", m.Location)

		out.Introduction = scalar(document.SectionIntroduction, "text", out.Introduction)
		out.CurrentSituation = scalar(document.SectionCurrentSituation, "text", out.CurrentSituation)
		out.Motivation = scalar(document.SectionMotivation, "text", out.Motivation)
		out.Conclusion = scalar(document.SectionConclusion, "text", out.Conclusion)
		return out
	}

	out.Profile = scalar(document.SectionProfile, "text", out.Profile)
	out.Education = listUnlessBlank(data, document.SectionEducation, data.Education, canned.education)
	out.Experience = listUnlessBlank(data, document.SectionExperience, data.Experience, canned.experience)
	out.Skills = listUnlessBlank(data, document.SectionSkills, data.Skills, canned.skills)
	out.Languages = listUnlessBlank(data, document.SectionLanguages, data.Languages, canned.languages)
	out.Interests = listUnlessBlank(data, document.SectionInterests, data.Interests, canned.interests)
	return out
}

func listUnlessBlank[T any](data document.Data, section string, have, canned []T) []T {
	if data.IsBlank(section) {
		return slices.Clone(have)
	}
	return List(have, canned)
}
