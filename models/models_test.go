package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rpupo63/portfolio-backend/errs"
)

func ptr[T any](v T) *T { return &v }

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	return apiErr.Field
}

func TestCategoryInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		input CategoryInput
		field string
	}{
		{name: "valid", input: CategoryInput{Name: "  Engineering ", SortOrder: 1}},
		{name: "blank name", input: CategoryInput{Name: "   "}, field: "name"},
		{name: "name too long", input: CategoryInput{Name: strings.Repeat("a", 101)}, field: "name"},
		{name: "negative sort order", input: CategoryInput{Name: "x", SortOrder: -1}, field: "sort_order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.field, fieldOf(t, err))
		})
	}
}

func TestCategoryInputTrimsName(t *testing.T) {
	in := CategoryInput{Name: "  Engineering "}
	require.NoError(t, in.Validate())
	assert.Equal(t, "Engineering", in.ToModel().Name)
}

func TestSkillInputValidate(t *testing.T) {
	sub := uuid.New()

	err := (&SkillInput{Name: "Go"}).Validate()
	assert.Equal(t, "subcategory_id", fieldOf(t, err))

	err = (&SkillInput{SubcategoryID: sub, Name: "Go", Years: ptr(51.0)}).Validate()
	assert.Equal(t, "years", fieldOf(t, err))

	in := &SkillInput{SubcategoryID: sub, Name: "Go", Level: ptr("  "), Years: ptr(4.5)}
	require.NoError(t, in.Validate())
	assert.Nil(t, in.Level, "blank optional text collapses to nil")
	assert.Equal(t, sub, in.ToModel().SubcategoryID)
}

func TestExperienceInputDates(t *testing.T) {
	in := &ExperienceInput{Company: "Acme", Role: "Engineer", StartDate: "2019-06-01", Bullets: []string{" shipped ", ""}}
	require.NoError(t, in.Validate())

	m := in.ToModel()
	assert.Equal(t, 2019, time.Time(m.StartDate).Year())
	assert.Nil(t, m.EndDate)
	assert.Equal(t, []string{"shipped"}, []string(m.Bullets))
	assert.Equal(t, "2019 - Present", m.DateRange())

	bad := &ExperienceInput{Company: "Acme", Role: "Engineer", StartDate: "2020-01-01", EndDate: ptr("2019-01-01")}
	assert.Equal(t, "end_date", fieldOf(t, bad.Validate()))

	missing := &ExperienceInput{Company: "Acme", Role: "Engineer"}
	assert.Equal(t, "start_date", fieldOf(t, missing.Validate()))
	assert.True(t, errs.IsMissingRequiredFieldError(missing.Validate()))

	garbled := &ExperienceInput{Company: "Acme", Role: "Engineer", StartDate: "June 2019"}
	assert.True(t, errs.IsInvalidFieldError(garbled.Validate()))
}

func TestFormatYearRange(t *testing.T) {
	start := datatypes.Date(time.Date(2016, 9, 1, 0, 0, 0, 0, time.UTC))
	end := datatypes.Date(time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2016 - 2020", FormatYearRange(start, &end))
	assert.Equal(t, "Present", FormatYear(nil))
}

func TestCertificationInputURL(t *testing.T) {
	in := &CertificationInput{Name: "CKA", IssuingOrganization: "CNCF", IssuedAt: "2023-02-01", CredentialURL: ptr("")}
	require.NoError(t, in.Validate())
	assert.Nil(t, in.ToModel().CredentialURL, "empty string means none")

	in.CredentialURL = ptr("not a url")
	assert.Equal(t, "credential_url", fieldOf(t, in.Validate()))
}

func TestProjectInputValidate(t *testing.T) {
	valid := func() *ProjectInput {
		return &ProjectInput{Title: "Site", Slug: "personal-site", Summary: "A site"}
	}

	in := valid()
	in.Slug = "Personal Site"
	assert.Equal(t, "slug", fieldOf(t, in.Validate()))

	in = valid()
	in.Slug = "double--hyphen"
	assert.Equal(t, "slug", fieldOf(t, in.Validate()))

	in = valid()
	in.LiveURL = ptr("ftp://example.com")
	assert.Equal(t, "live_url", fieldOf(t, in.Validate()))

	in = valid()
	in.Tags = []string{strings.Repeat("t", 300), strings.Repeat("u", 300)}
	assert.Equal(t, "tags", fieldOf(t, in.Validate()))

	in = valid()
	in.Metrics = []ProjectMetricInput{{Label: "Users", Value: ""}}
	assert.Equal(t, "metrics.value", fieldOf(t, in.Validate()))
}

func TestProjectInputToModel(t *testing.T) {
	in := &ProjectInput{
		Title:   "Site",
		Slug:    "site",
		Summary: "A site",
		Tags:    []string{" go ", "react", "go", ""},
		Metrics: []ProjectMetricInput{{Label: "Users", Value: "10k"}, {Label: "Uptime", Value: "99.9%"}},
	}
	require.NoError(t, in.Validate())

	p := in.ToModel()
	assert.Equal(t, []string{"go", "react"}, p.TagNames())
	require.Len(t, p.Metrics, 2)
	assert.Equal(t, 0, p.Metrics[0].SortOrder)
	assert.Equal(t, 1, p.Metrics[1].SortOrder)
	assert.Equal(t, "Uptime", p.Metrics[1].Label)
}

func TestProjectFilters(t *testing.T) {
	p := Project{Category: ptr("web"), Tags: []ProjectTag{{Tag: "go"}, {Tag: "react"}}}

	assert.True(t, p.InCategory(""))
	assert.True(t, p.InCategory("web"))
	assert.False(t, p.InCategory("mobile"))
	assert.True(t, p.HasAllTags([]string{"go", "react"}))
	assert.False(t, p.HasAllTags([]string{"go", "rust"}))
	assert.True(t, p.HasAllTags(nil))
}

func TestProjectSortMetricsIsStable(t *testing.T) {
	p := Project{Metrics: []ProjectMetric{
		{Label: "b", SortOrder: 1},
		{Label: "a", SortOrder: 0},
		{Label: "c", SortOrder: 1},
	}}
	p.SortMetrics()
	assert.Equal(t, "a", p.Metrics[0].Label)
	assert.Equal(t, "b", p.Metrics[1].Label)
	assert.Equal(t, "c", p.Metrics[2].Label)
}

func TestFindColumnMismatches(t *testing.T) {
	got := findColumnMismatches([]string{"id", "name", "updated_at", "archived"}, []string{"id", "name"})
	assert.Equal(t, []string{"archived", "updated_at"}, got)
}

func TestValidationErrorsUseJSONFieldNames(t *testing.T) {
	err := (&SkillInput{SubcategoryID: uuid.New(), Name: "Go", Years: ptr(-1.0)}).Validate()
	assert.Equal(t, "years", fieldOf(t, err))
	assert.True(t, errs.IsInvalidFieldError(err))

	err = (&SkillInput{Name: "Go"}).Validate()
	assert.True(t, errs.IsInvalidFieldError(err), "an unset reference is invalid rather than missing")

	err = (&CategoryInput{Name: "  "}).Validate()
	assert.True(t, errs.IsMissingRequiredFieldError(err))
	assert.Equal(t, "name", fieldOf(t, err))

	in := &ProjectInput{Title: "Site", Slug: "site", Summary: "A site", AdditionalImageURLs: []string{"https://cdn.example/a.png", " ", "nope"}}
	assert.Equal(t, "additional_image_urls", fieldOf(t, in.Validate()))

	assert.Equal(t, "metrics.label", fieldPath("ProjectInput.metrics[3].label"))
	assert.Equal(t, "name", fieldPath("CategoryInput.name"))
}
