package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the top level of the skills hierarchy
type Category struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name      string    `json:"name" db:"name" gorm:"type:text;not null"`
	SortOrder int       `json:"sort_order" db:"sort_order" gorm:"type:integer;not null;default:0"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`
}

func (Category) TableName() string { return "categories" }

func (c Category) DisplayName() string { return c.Name }

type CategoryInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

func (in *CategoryInput) Validate() error {
	trimText(&in.Name)
	return checkStruct(in)
}

func (in *CategoryInput) ToModel() Category {
	return Category{Name: in.Name, SortOrder: in.SortOrder}
}
