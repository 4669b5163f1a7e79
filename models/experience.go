package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Experience is a resume work entry. A nil EndDate means the role is current.
type Experience struct {
	ID        uuid.UUID                   `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Company   string                      `json:"company" db:"company" gorm:"type:text;not null"`
	Role      string                      `json:"role" db:"role" gorm:"type:text;not null"`
	StartDate datatypes.Date              `json:"start_date" db:"start_date" gorm:"type:date;not null"`
	EndDate   *datatypes.Date             `json:"end_date" db:"end_date" gorm:"type:date"`
	Bullets   datatypes.JSONSlice[string] `json:"bullets" db:"bullets" gorm:"type:jsonb"`
	CreatedAt time.Time                   `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`
}

func (Experience) TableName() string { return "experiences" }

func (e Experience) DisplayName() string { return e.Role + " at " + e.Company }

// DateRange renders the period as "2019 - Present".
func (e Experience) DateRange() string {
	return FormatYearRange(e.StartDate, e.EndDate)
}

type ExperienceInput struct {
	Company   string   `json:"company" validate:"required,max=200"`
	Role      string   `json:"role" validate:"required,max=200"`
	StartDate string   `json:"start_date" validate:"required"`
	EndDate   *string  `json:"end_date"`
	Bullets   []string `json:"bullets"`

	start datatypes.Date
	end   *datatypes.Date
}

func (in *ExperienceInput) Validate() error {
	trimText(&in.Company)
	trimText(&in.Role)
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
	if err := dateRange("end_date", in.start, in.end); err != nil {
		return err
	}
	in.Bullets = compactLines(in.Bullets)
	return nil
}

func (in *ExperienceInput) ToModel() Experience {
	return Experience{
		Company:   in.Company,
		Role:      in.Role,
		StartDate: in.start,
		EndDate:   in.end,
		Bullets:   datatypes.JSONSlice[string](in.Bullets),
	}
}

// FormatYear returns the year of d, or "Present" when d is nil.
func FormatYear(d *datatypes.Date) string {
	if d == nil {
		return "Present"
	}
	return strconv.Itoa(time.Time(*d).Year())
}

func FormatYearRange(start datatypes.Date, end *datatypes.Date) string {
	return FormatYear(&start) + " - " + FormatYear(end)
}

func compactLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
