package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type ProjectTagRepo struct {
	exec executor
}

func NewProjectTagRepo(exec executor) *ProjectTagRepo {
	return &ProjectTagRepo{exec: exec}
}

// DistinctTags returns every tag in use, alphabetically.
func (r *ProjectTagRepo) DistinctTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := r.exec.run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.ProjectTag{}).Distinct("tag").Order("tag ASC").Pluck("tag", &tags).Error
	})
	if err != nil {
		return nil, errs.NewDatabaseError("list", "project tags", err)
	}
	return tags, nil
}
