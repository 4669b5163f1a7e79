package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type ProfileRepo struct {
	exec executor
}

func NewProfileRepo(exec executor) *ProfileRepo {
	return &ProfileRepo{exec: exec}
}

// FindByID returns the profile keyed by the auth user id
func (r *ProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.exec.run(ctx, func(tx *gorm.DB) error {
		return tx.First(&profile, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("profile")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("get", "profile", err)
	}
	return &profile, nil
}
