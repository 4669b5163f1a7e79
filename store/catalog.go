package store

import (
	"context"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
)

// Lookup is an uncached read of a single row keyed by K. Like every read it
// waits on the caller's Gate first.
type Lookup[K any, T any] struct {
	fetch func(ctx context.Context, key K) (*T, error)
}

func NewLookup[K any, T any](fetch func(ctx context.Context, key K) (*T, error)) *Lookup[K, T] {
	return &Lookup[K, T]{fetch: fetch}
}

func (l *Lookup[K, T]) Get(ctx context.Context, key K) (*T, error) {
	if _, err := waitGate(ctx); err != nil {
		return nil, err
	}
	return l.fetch(ctx, key)
}

// Catalog holds one capability per portfolio collection, all sharing a cache.
type Catalog struct {
	Categories     *Resource[models.Category, *models.CategoryInput]
	Subcategories  *Resource[models.Subcategory, *models.SubcategoryInput]
	Skills         *Resource[models.Skill, *models.SkillInput]
	Experiences    *Resource[models.Experience, *models.ExperienceInput]
	Education      *Resource[models.Education, *models.EducationInput]
	Certifications *Resource[models.Certification, *models.CertificationInput]
	Projects       *Resource[models.Project, *models.ProjectInput]
	Tags           *Query[[]string]
	ProjectBySlug  *Lookup[string, models.Project]
}

func NewCatalog(db database.Database, cache *Cache) *Catalog {
	subcategories := db.Subcategories()
	skills := db.Skills()
	projects := db.ProjectRepo()

	return &Catalog{
		Categories: NewResource[models.Category, *models.CategoryInput]("categories", "category", db.Categories(), cache,
			WithDependents(ChildrenOf("subcategories", "category_id", subcategories)),
			AlsoInvalidates("subcategories", "skills")),
		Subcategories: NewResource[models.Subcategory, *models.SubcategoryInput]("subcategories", "subcategory", subcategories, cache,
			WithDependents(ChildrenOf("skills", "subcategory_id", skills)),
			AlsoInvalidates("skills")),
		Skills:         NewResource[models.Skill, *models.SkillInput]("skills", "skill", skills, cache),
		Experiences:    NewResource[models.Experience, *models.ExperienceInput]("experiences", "experience", db.Experiences(), cache),
		Education:      NewResource[models.Education, *models.EducationInput]("education", "education", db.Education(), cache),
		Certifications: NewResource[models.Certification, *models.CertificationInput]("certifications", "certification", db.Certifications(), cache),
		Projects: NewResource[models.Project, *models.ProjectInput]("projects", "project", projects, cache,
			AlsoInvalidates("project-tags")),
		Tags:          NewQuery("project-tags", db.ProjectTagRepo().DistinctTags, cache),
		ProjectBySlug: NewLookup(projects.FindBySlug),
	}
}

// Summarizers lists the collections shown on the admin dashboard.
func (c *Catalog) Summarizers() []Summarizer {
	return []Summarizer{
		c.Categories,
		c.Subcategories,
		c.Skills,
		c.Experiences,
		c.Education,
		c.Certifications,
		c.Projects,
	}
}
