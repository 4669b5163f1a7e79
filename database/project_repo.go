package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// ProjectRepo stores projects together with their tags and metrics.
// Every write touches the project row and its children in one transaction.
type ProjectRepo struct {
	*Table[models.Project]
}

func orderedMetrics(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

func NewProjectRepo(exec executor) *ProjectRepo {
	return &ProjectRepo{
		Table: newTable[models.Project](exec, "project",
			OrderBy("sort_order ASC"),
			Preload("Tags"),
			Preload("Metrics", orderedMetrics),
		),
	}
}

// FindBySlug returns the project published under slug
func (r *ProjectRepo) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := r.exec.run(ctx, func(tx *gorm.DB) error {
		return r.query(tx).First(&project, "slug = ?", slug).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("project")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("get", "project", err)
	}
	return &project, nil
}

// Create inserts the project row, then its tags and metrics.
func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) error {
	err := r.exec.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		return insertChildren(tx, project)
	})
	if err != nil {
		return errs.NewDatabaseError("create", "project", err)
	}
	return nil
}

// Update overwrites the project row and replaces its tags and metrics wholesale.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, project *models.Project) error {
	err := r.exec.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ?", id).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(project)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		project.ID = id
		return insertChildren(tx, project)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFound("project")
	}
	if err != nil {
		return errs.NewDatabaseError("update", "project", err)
	}
	return nil
}

// Delete removes the project and everything it owns.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.exec.tx(ctx, func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFound("project")
	}
	if err != nil {
		return errs.NewDatabaseError("delete", "project", err)
	}
	return nil
}

func insertChildren(tx *gorm.DB, project *models.Project) error {
	for i := range project.Tags {
		project.Tags[i].ID = uuid.Nil
		project.Tags[i].ProjectID = project.ID
	}
	for i := range project.Metrics {
		project.Metrics[i].ID = uuid.Nil
		project.Metrics[i].ProjectID = project.ID
		project.Metrics[i].SortOrder = i
	}
	if len(project.Tags) > 0 {
		if err := tx.Create(&project.Tags).Error; err != nil {
			return err
		}
	}
	if len(project.Metrics) > 0 {
		if err := tx.Create(&project.Metrics).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteChildren(tx *gorm.DB, projectID uuid.UUID) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectTag{}).Error; err != nil {
		return err
	}
	return tx.Where("project_id = ?", projectID).Delete(&models.ProjectMetric{}).Error
}
