package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Education struct {
	ID        uuid.UUID       `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	School    string          `json:"school" db:"school" gorm:"type:text;not null"`
	Degree    string          `json:"degree" db:"degree" gorm:"type:text;not null"`
	StartDate datatypes.Date  `json:"start_date" db:"start_date" gorm:"type:date;not null"`
	EndDate   *datatypes.Date `json:"end_date" db:"end_date" gorm:"type:date"`
	Details   datatypes.JSON  `json:"details" db:"details" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`
}

func (Education) TableName() string { return "education" }

func (e Education) DisplayName() string { return e.Degree + ", " + e.School }

func (e Education) DateRange() string {
	return FormatYearRange(e.StartDate, e.EndDate)
}

type EducationInput struct {
	School    string         `json:"school" validate:"required,max=200"`
	Degree    string         `json:"degree" validate:"required,max=200"`
	StartDate string         `json:"start_date" validate:"required"`
	EndDate   *string        `json:"end_date"`
	Details   datatypes.JSON `json:"details"`

	start datatypes.Date
	end   *datatypes.Date
}

func (in *EducationInput) Validate() error {
	trimText(&in.School)
	trimText(&in.Degree)
	if err := checkStruct(in); err != nil {
		return err
	}
	var err error
	if in.start, err = parseDate("start_date", in.StartDate); err != nil {
		return err
	}
	if in.end, err = parseOptionalDate("end_date", in.EndDate); err != nil {
		return err
	}
	if string(in.Details) == "null" {
		in.Details = nil
	}
	return dateRange("end_date", in.start, in.end)
}

func (in *EducationInput) ToModel() Education {
	return Education{
		School:    in.School,
		Degree:    in.Degree,
		StartDate: in.start,
		EndDate:   in.end,
		Details:   in.Details,
	}
}
