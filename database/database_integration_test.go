//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

func date(y int, m time.Month) datatypes.Date {
	return datatypes.Date(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
}

func TestCategoryCRUD(t *testing.T) {
	tdb := getTestDB(t)
	tdb.truncate(t)
	ctx := context.Background()
	categories := tdb.Database.Categories()

	second := models.Category{Name: "Design", SortOrder: 2}
	first := models.Category{Name: "Engineering", SortOrder: 1}
	require.NoError(t, categories.Create(ctx, &second))
	require.NoError(t, categories.Create(ctx, &first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Engineering", list[0].Name)
	assert.Equal(t, "Design", list[1].Name)

	first.Name = "Software"
	first.SortOrder = 0
	require.NoError(t, categories.Update(ctx, first.ID, &first))
	got, err := categories.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Software", got.Name)
	assert.Equal(t, 0, got.SortOrder)

	require.NoError(t, categories.Delete(ctx, second.ID))
	err = categories.Delete(ctx, second.ID)
	assert.True(t, errs.IsNotFound(err))

	_, err = categories.Get(ctx, uuid.New())
	assert.True(t, errs.IsNotFound(err))
}

func TestSkillsPreloadHierarchy(t *testing.T) {
	tdb := getTestDB(t)
	tdb.truncate(t)
	ctx := context.Background()

	category := models.Category{Name: "Engineering"}
	require.NoError(t, tdb.Database.Categories().Create(ctx, &category))
	sub := models.Subcategory{CategoryID: category.ID, Name: "Backend"}
	require.NoError(t, tdb.Database.Subcategories().Create(ctx, &sub))
	skill := models.Skill{SubcategoryID: sub.ID, Name: "Go", Links: datatypes.JSON(`[{"label":"docs","url":"https://go.dev"}]`)}
	require.NoError(t, tdb.Database.Skills().Create(ctx, &skill))

	skills, err := tdb.Database.Skills().List(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	require.NotNil(t, skills[0].Subcategory)
	require.NotNil(t, skills[0].Subcategory.Category)
	assert.Equal(t, "Engineering", skills[0].Subcategory.Category.Name)

	exists, err := tdb.Database.Subcategories().ExistsBy(ctx, "category_id", category.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = tdb.Database.Categories().Delete(ctx, category.ID)
	require.Error(t, err, "foreign key restricts deleting a category with subcategories")
	assert.True(t, errs.IsConflict(err))
	assert.Equal(t, 409, errs.StatusCode(err))
}

func TestExperiencesMostRecentFirst(t *testing.T) {
	tdb := getTestDB(t)
	tdb.truncate(t)
	ctx := context.Background()
	experiences := tdb.Database.Experiences()

	end := date(2020, time.March)
	require.NoError(t, experiences.Create(ctx, &models.Experience{Company: "Old", Role: "Dev", StartDate: date(2015, time.January), EndDate: &end}))
	require.NoError(t, experiences.Create(ctx, &models.Experience{Company: "New", Role: "Lead", StartDate: date(2021, time.June), Bullets: []string{"shipped"}}))

	list, err := experiences.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "New", list[0].Company)
	assert.Equal(t, "2021 - Present", list[0].DateRange())
	assert.Equal(t, []string{"shipped"}, []string(list[0].Bullets))

	stats, err := experiences.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	require.NotNil(t, stats.LastUpdated)

	recent, err := experiences.MostRecent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New", recent.Company)
}

func TestProjectWritesReplaceChildren(t *testing.T) {
	tdb := getTestDB(t)
	tdb.truncate(t)
	ctx := context.Background()
	projects := tdb.Database.ProjectRepo()

	in := &models.ProjectInput{
		Title:   "Site",
		Slug:    "site",
		Summary: "Personal site",
		Tags:    []string{"go", "react"},
		Metrics: []models.ProjectMetricInput{{Label: "Users", Value: "10k"}, {Label: "Uptime", Value: "99.9%"}},
	}
	require.NoError(t, in.Validate())
	project := in.ToModel()
	require.NoError(t, projects.Create(ctx, &project))

	got, err := projects.FindBySlug(ctx, "site")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"go", "react"}, got.TagNames())
	require.Len(t, got.Metrics, 2)
	assert.Equal(t, "Users", got.Metrics[0].Label)

	in.Tags = []string{"rust"}
	in.Metrics = []models.ProjectMetricInput{{Label: "Stars", Value: "120"}}
	require.NoError(t, in.Validate())
	updated := in.ToModel()
	require.NoError(t, projects.Update(ctx, project.ID, &updated))

	got, err = projects.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, got.TagNames())
	require.Len(t, got.Metrics, 1)
	assert.Equal(t, 0, got.Metrics[0].SortOrder)

	tags, err := tdb.Database.ProjectTagRepo().DistinctTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, tags)

	require.NoError(t, projects.Delete(ctx, project.ID))
	tags, err = tdb.Database.ProjectTagRepo().DistinctTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestProjectSlugIsUnique(t *testing.T) {
	tdb := getTestDB(t)
	tdb.truncate(t)
	ctx := context.Background()

	a := models.Project{Title: "A", Slug: "same", Summary: "a"}
	b := models.Project{Title: "B", Slug: "same", Summary: "b"}
	require.NoError(t, tdb.Database.ProjectRepo().Create(ctx, &a))
	err := tdb.Database.ProjectRepo().Create(ctx, &b)
	require.Error(t, err)
	assert.Equal(t, 409, errs.StatusCode(err))
}

func TestProfileLookup(t *testing.T) {
	tdb := getTestDB(t)
	tdb.truncate(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, tdb.Database.GORM().Create(&models.Profile{ID: id, IsAdmin: true}).Error)

	profile, err := tdb.Database.ProfileRepo().FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin)

	_, err = tdb.Database.ProfileRepo().FindByID(ctx, uuid.New())
	assert.True(t, errs.IsNotFound(err))
}

func TestMigrateStepsRoundTrip(t *testing.T) {
	tdb := getTestDB(t)

	require.NoError(t, MigrateSteps(tdb.Config.URL(), -1))
	require.NoError(t, MigrateSteps(tdb.Config.URL(), 1))
	require.NoError(t, RunMigrations(tdb.Config.URL()))
}
