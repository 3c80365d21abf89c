package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/document"
	"cvforge/internal/locale"
)

func sampleCV() Input {
	layout := document.DefaultLayout(document.KindCV)
	layout.SectionOrder = []string{"personal-info", "profile", "education", "experience", "custom-volunteering", "mystery"}
	layout.SectionPages = map[string]int{"experience": 2, "custom-volunteering": 2}
	layout.CustomSectionNames = map[string]string{"profile": "About me"}
	return Input{
		Kind:   document.KindCV,
		Title:  "My CV",
		Layout: layout,
		Data: document.Data{
			PersonalInfo: document.PersonalInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			Profile:      "Mathematician.\nFirst programmer.",
			Experience: []document.Experience{
				{Position: "Analyst", Company: "Analytical Engine Ltd", StartDate: "1842", Current: true},
			},
			CustomSections: map[string]document.CustomSection{
				"custom-volunteering": {Title: "Volunteering", Content: "Taught <b>maths</b>."},
			},
		},
	}
}

func sectionIDs(p Page) []string {
	ids := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestRenderExportSkipsEmptyAndUnknownSections(t *testing.T) {
	out, err := Render(sampleCV(), Options{Locale: locale.EN, Mode: ModeExport})
	require.NoError(t, err)

	require.Len(t, out.Pages, 2)
	assert.Equal(t, []string{"personal-info", "profile"}, sectionIDs(out.Pages[0]), "education is empty and mystery is unknown")
	assert.Equal(t, []string{"experience", "custom-volunteering"}, sectionIDs(out.Pages[1]), "classic does not repeat the header")

	assert.Equal(t, "About me", out.Pages[0].Sections[1].Title)
	assert.Equal(t, "Volunteering", out.Pages[1].Sections[1].Title)

	assert.Contains(t, out.HTML, `id="pdf-render-ready"`)
	assert.Contains(t, out.HTML, "Ada Lovelace")
	assert.Contains(t, out.HTML, "Present")
	assert.Contains(t, out.HTML, "Taught <b>maths</b>.")
	assert.Equal(t, 2, strings.Count(out.HTML, `class="page"`))
	assert.False(t, out.Stale)
}

func TestRenderOmitsSecondPageWhenEmpty(t *testing.T) {
	in := sampleCV()
	in.Layout.SectionPages = nil

	out, err := Render(in, Options{Mode: ModeExport})
	require.NoError(t, err)
	require.Len(t, out.Pages, 1)
	assert.Equal(t, 1, strings.Count(out.HTML, `class="page"`))
}

func TestRenderDropsSecondPageWhenItsSectionsAreEmpty(t *testing.T) {
	for _, name := range []string{"classic", "modern"} {
		t.Run(name, func(t *testing.T) {
			in := sampleCV()
			in.Layout.Template = name
			in.Layout.SectionOrder = []string{"personal-info", "profile", "education", "references"}
			in.Layout.SectionPages = map[string]int{"education": 2, "references": 2}

			out, err := Render(in, Options{Mode: ModeExport})
			require.NoError(t, err)
			require.Len(t, out.Pages, 1, "page two sections are empty, a repeated header alone is not a page")
			assert.Equal(t, 1, strings.Count(out.HTML, `class="page"`))

			out, err = Render(in, Options{Mode: ModePreview})
			require.NoError(t, err)
			assert.Len(t, out.Pages, 2, "preview fills education with placeholders")
		})
	}
}

func TestRenderRepeatsHeaderOnSecondPage(t *testing.T) {
	in := sampleCV()
	in.Layout.Template = "professional"

	out, err := Render(in, Options{Mode: ModeExport})
	require.NoError(t, err)
	require.Len(t, out.Pages, 2)

	second := out.Pages[1]
	require.NotEmpty(t, second.Sections)
	assert.Equal(t, document.SectionPersonalInfo, second.Sections[0].ID)
	assert.True(t, second.Sections[0].Repeated)
}

func TestRenderPreviewFillsPlaceholders(t *testing.T) {
	in := Input{Kind: document.KindCV, Layout: document.DefaultLayout(document.KindCV)}

	out, err := Render(in, Options{Locale: locale.FR, Mode: ModePreview})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "Marie Dupont")
	assert.Contains(t, out.HTML, "Formation")
	assert.Contains(t, out.HTML, `lang="fr"`)

	exported, err := Render(in, Options{Locale: locale.FR, Mode: ModeExport})
	require.NoError(t, err)
	assert.NotContains(t, exported.HTML, "Marie Dupont")
}

func TestRenderFallsBackToClassic(t *testing.T) {
	in := sampleCV()
	in.Layout.Template = "does-not-exist"

	out, err := Render(in, Options{Mode: ModeExport})
	require.NoError(t, err)
	assert.Equal(t, "classic", out.Template)
}

func TestRenderInvalidInputReturnsPrevious(t *testing.T) {
	good, err := Render(sampleCV(), Options{Mode: ModeExport})
	require.NoError(t, err)

	bad := sampleCV()
	bad.Layout.AccentColor = "red; background: url(x)"

	_, err = Render(bad, Options{Mode: ModeExport})
	assert.ErrorIs(t, err, ErrInvalidInput)

	out, err := Render(bad, Options{Mode: ModeExport, Previous: good})
	require.NoError(t, err)
	assert.True(t, out.Stale)
	assert.Equal(t, good.HTML, out.HTML)
	assert.False(t, good.Stale, "caller's copy is left untouched")
}

func TestEveryThemeRendersBothKinds(t *testing.T) {
	gallery := Gallery()
	require.Len(t, gallery, 9)

	for _, theme := range gallery {
		for _, kind := range []document.Kind{document.KindCV, document.KindCoverLetter} {
			out, err := Render(Sample(kind, theme.Name), Options{Mode: ModePreview})
			require.NoError(t, err, "%s/%s", theme.Name, kind)
			assert.Equal(t, theme.Name, out.Template)
			assert.Contains(t, out.HTML, "theme-"+theme.Name)
			assert.Contains(t, out.HTML, theme.DefaultAccent)
		}
	}
}

func TestCoverLetterSections(t *testing.T) {
	in := Sample(document.KindCoverLetter, "minimal")
	in.Data.Motivation = "Line one\n\nLine two"

	out, err := Render(in, Options{Mode: ModePreview})
	require.NoError(t, err)
	ids := sectionIDs(out.Pages[0])
	assert.Equal(t, document.BuiltinSections(document.KindCoverLetter), ids)
	assert.Contains(t, out.HTML, "<p>Line one</p><p>Line two</p>")
}

func TestRichTextSanitizesCustomSections(t *testing.T) {
	got := string(richText(`<p onclick="steal()">Led <em>workshops</em></p><script>alert(1)</script><a href="https://example.com">site</a><a href="javascript:alert(1)">bad</a>`))
	assert.Contains(t, got, "<p>Led <em>workshops</em></p>")
	assert.NotContains(t, got, "onclick")
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "javascript:")
	assert.Contains(t, got, `rel="nofollow"`)

	assert.Equal(t, "<p>First line</p><p>Tom &amp; Jerry</p>", string(richText("First line\n\n  Tom & Jerry ")))
}
