package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the per-user record keyed by the auth user id. IsAdmin gates the admin panel.
type Profile struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Email     *string   `json:"email" db:"email" gorm:"type:text"`
	FullName  *string   `json:"full_name" db:"full_name" gorm:"type:text"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin" gorm:"type:boolean;not null;default:false"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"type:timestamptz;not null;default:now()"`
}

func (Profile) TableName() string { return "profiles" }
