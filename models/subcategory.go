package models

import (
	"time"

	"github.com/google/uuid"
)

// Subcategory groups skills under a Category
type Subcategory struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	CategoryID uuid.UUID `json:"category_id" db:"category_id" gorm:"type:uuid;not null;index:idx_subcategories_category_id"`
	Name       string    `json:"name" db:"name" gorm:"type:text;not null"`
	SortOrder  int       `json:"sort_order" db:"sort_order" gorm:"type:integer;not null;default:0"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (Subcategory) TableName() string { return "subcategories" }

func (s Subcategory) DisplayName() string { return s.Name }

type SubcategoryInput struct {
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
	Name       string    `json:"name" validate:"required,max=100"`
	SortOrder  int       `json:"sort_order" validate:"gte=0"`
}

func (in *SubcategoryInput) Validate() error {
	trimText(&in.Name)
	return checkStruct(in)
}

func (in *SubcategoryInput) ToModel() Subcategory {
	return Subcategory{CategoryID: in.CategoryID, Name: in.Name, SortOrder: in.SortOrder}
}
