package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type Database struct {
	db             *gorm.DB
	categories     *Table[models.Category]
	subcategories  *Table[models.Subcategory]
	skills         *Table[models.Skill]
	experiences    *Table[models.Experience]
	education      *Table[models.Education]
	certifications *Table[models.Certification]
	projectRepo    *ProjectRepo
	projectTagRepo *ProjectTagRepo
	profileRepo    *ProfileRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance.
// With enforceRLS every statement runs under the caller's claims (see WithClaims).
func New(db *gorm.DB, enforceRLS bool) Database {
	exec := executor{db: db, enforceRLS: enforceRLS}
	return Database{
		db:         db,
		categories: newTable[models.Category](exec, "category", OrderBy("sort_order ASC")),
		subcategories: newTable[models.Subcategory](exec, "subcategory",
			OrderBy("sort_order ASC"),
			Preload("Category"),
		),
		skills: newTable[models.Skill](exec, "skill",
			OrderBy("sort_order ASC"),
			Preload("Subcategory.Category"),
		),
		experiences:    newTable[models.Experience](exec, "experience", OrderBy("start_date DESC")),
		education:      newTable[models.Education](exec, "education", OrderBy("start_date DESC")),
		certifications: newTable[models.Certification](exec, "certification", OrderBy("sort_order ASC")),
		projectRepo:    NewProjectRepo(exec),
		projectTagRepo: NewProjectTagRepo(exec),
		profileRepo:    NewProfileRepo(exec),
	}
}

// Accessor methods for each repository

func (d Database) Categories() *Table[models.Category] {
	return d.categories
}

func (d Database) Subcategories() *Table[models.Subcategory] {
	return d.subcategories
}

func (d Database) Skills() *Table[models.Skill] {
	return d.skills
}

func (d Database) Experiences() *Table[models.Experience] {
	return d.experiences
}

func (d Database) Education() *Table[models.Education] {
	return d.education
}

func (d Database) Certifications() *Table[models.Certification] {
	return d.certifications
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) ProjectTagRepo() *ProjectTagRepo {
	return d.projectTagRepo
}

func (d Database) ProfileRepo() *ProfileRepo {
	return d.profileRepo
}

// GORM exposes the connection for tooling commands.
func (d Database) GORM() *gorm.DB {
	return d.db
}

func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
