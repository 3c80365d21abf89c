package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("cover-letter")
	require.NoError(t, err)
	assert.Equal(t, KindCoverLetter, kind)

	_, err = ParseKind("letter")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNormalizeDedupesAndPrunes(t *testing.T) {
	in := Layout{
		Template:     " modern ",
		SectionOrder: []string{"personal-info", "profile", "profile", "", "experience", "personal-info"},
		SectionPages: map[string]int{
			"experience": 2,
			"profile":    1,
			"education":  2, // 不在 order 中
			"skills":     3,
		},
		CustomSectionNames: map[string]string{
			"profile":    "About me",
			"experience": "   ",
		},
	}

	out := Normalize(in)

	assert.Equal(t, "modern", out.Template)
	assert.Equal(t, []string{"personal-info", "profile", "experience"}, out.SectionOrder)
	assert.Equal(t, map[string]int{"experience": 2, "profile": 1}, out.SectionPages)
	assert.Equal(t, map[string]string{"profile": "About me"}, out.CustomSectionNames)

	// 入参不被修改
	assert.Len(t, in.SectionOrder, 6)
	assert.Contains(t, in.SectionPages, "education")
}

func TestDefaultLayout(t *testing.T) {
	cv := DefaultLayout(KindCV)
	assert.Equal(t, DefaultTemplate, cv.Template)
	assert.Equal(t, SectionPersonalInfo, cv.SectionOrder[0])
	assert.Contains(t, cv.SectionOrder, SectionExperience)

	letter := DefaultLayout(KindCoverLetter)
	assert.Contains(t, letter.SectionOrder, SectionMotivation)
	assert.NotContains(t, letter.SectionOrder, SectionSkills)

	// 返回的是副本
	cv.SectionOrder[0] = "x"
	assert.Equal(t, SectionPersonalInfo, DefaultLayout(KindCV).SectionOrder[0])
}

func TestSectionHelpers(t *testing.T) {
	assert.True(t, IsBuiltin(KindCV, SectionSkills))
	assert.False(t, IsBuiltin(KindCoverLetter, SectionSkills))
	assert.True(t, IsCustom("custom-volunteering"))
	assert.False(t, IsCustom("custom-"))
	assert.False(t, IsCustom("profile"))
}

func TestMergeKeepsUnsetFields(t *testing.T) {
	base := DefaultLayout(KindCV)
	merged := Merge(base, Layout{AccentColor: "#111111"})
	assert.Equal(t, "#111111", merged.AccentColor)
	assert.Equal(t, base.Template, merged.Template)
	assert.Equal(t, base.SectionOrder, merged.SectionOrder)
}

func TestValidate(t *testing.T) {
	valid := []byte(`{
		"title": "Backend engineer",
		"accentColor": "#1e40af",
		"sectionOrder": ["personal-info", "skills"],
		"sectionPages": {"skills": 2},
		"data": {"personalInfo": {"firstName": "Ada"}, "skills": [{"name": "Go", "level": 5}]}
	}`)
	require.NoError(t, Validate(KindCV, valid))

	badLevel := []byte(`{"data": {"skills": [{"name": "Go", "level": 9}]}}`)
	err := Validate(KindCV, badLevel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields)

	badColor := []byte(`{"accentColor": "blue"}`)
	assert.ErrorIs(t, Validate(KindCoverLetter, badColor), ErrValidation)

	assert.ErrorIs(t, Validate(KindCV, []byte(`{not json`)), ErrValidation)
	assert.ErrorIs(t, Validate(Kind("memo"), []byte(`{}`)), ErrUnknownKind)
}

func TestDataHelpers(t *testing.T) {
	d := Data{BlankFields: []string{"personal-info.phone"}}
	assert.True(t, d.IsBlank("personal-info.phone"))
	assert.False(t, d.IsBlank("personal-info.email"))

	assert.Equal(t, "Ada Lovelace", PersonalInfo{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", PersonalInfo{FirstName: "Ada"}.FullName())
}
