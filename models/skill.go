package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Skill is a leaf of the category -> subcategory -> skill hierarchy.
// Links holds free-form JSON (label/url pairs in practice).
type Skill struct {
	ID            uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	SubcategoryID uuid.UUID      `json:"subcategory_id" db:"subcategory_id" gorm:"type:uuid;not null;index:idx_skills_subcategory_id"`
	Name          string         `json:"name" db:"name" gorm:"type:text;not null"`
	Level         *string        `json:"level" db:"level" gorm:"type:text"`
	Years         *float64       `json:"years" db:"years" gorm:"type:real"`
	Description   *string        `json:"description" db:"description" gorm:"type:text"`
	Links         datatypes.JSON `json:"links" db:"links" gorm:"type:jsonb"`
	SortOrder     int            `json:"sort_order" db:"sort_order" gorm:"type:integer;not null;default:0"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`

	Subcategory *Subcategory `json:"subcategory,omitempty" gorm:"foreignKey:SubcategoryID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (Skill) TableName() string { return "skills" }

func (s Skill) DisplayName() string { return s.Name }

type SkillInput struct {
	SubcategoryID uuid.UUID      `json:"subcategory_id" validate:"required"`
	Name          string         `json:"name" validate:"required,max=100"`
	Level         *string        `json:"level" validate:"omitempty,max=50"`
	Years         *float64       `json:"years" validate:"omitempty,gte=0,lte=50"`
	Description   *string        `json:"description" validate:"omitempty,max=500"`
	Links         datatypes.JSON `json:"links"`
	SortOrder     int            `json:"sort_order" validate:"gte=0"`
}

func (in *SkillInput) Validate() error {
	trimText(&in.Name)
	trimOptional(&in.Level)
	trimOptional(&in.Description)
	if string(in.Links) == "null" {
		in.Links = nil
	}
	return checkStruct(in)
}

func (in *SkillInput) ToModel() Skill {
	return Skill{
		SubcategoryID: in.SubcategoryID,
		Name:          in.Name,
		Level:         in.Level,
		Years:         in.Years,
		Description:   in.Description,
		Links:         in.Links,
		SortOrder:     in.SortOrder,
	}
}
