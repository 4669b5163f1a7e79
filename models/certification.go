package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Certification struct {
	ID                  uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name                string         `json:"name" db:"name" gorm:"type:text;not null"`
	IssuingOrganization string         `json:"issuing_organization" db:"issuing_organization" gorm:"type:text;not null"`
	IssuedAt            datatypes.Date `json:"issued_at" db:"issued_at" gorm:"type:date;not null"`
	CredentialID        *string        `json:"credential_id" db:"credential_id" gorm:"type:text"`
	CredentialURL       *string        `json:"credential_url" db:"credential_url" gorm:"type:text"`
	SortOrder           int            `json:"sort_order" db:"sort_order" gorm:"type:integer;not null;default:0"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`
}

func (Certification) TableName() string { return "certifications" }

func (c Certification) DisplayName() string { return c.Name }

type CertificationInput struct {
	Name                string  `json:"name" validate:"required,max=200"`
	IssuingOrganization string  `json:"issuing_organization" validate:"required,max=100"`
	IssuedAt            string  `json:"issued_at" validate:"required"`
	CredentialID        *string `json:"credential_id" validate:"omitempty,max=100"`
	CredentialURL       *string `json:"credential_url" validate:"omitempty,max=500,http_url"`
	SortOrder           int     `json:"sort_order" validate:"gte=0"`

	issued datatypes.Date
}

func (in *CertificationInput) Validate() error {
	trimText(&in.Name)
	trimText(&in.IssuingOrganization)
	trimOptional(&in.CredentialID)
	trimOptional(&in.CredentialURL)
	if err := checkStruct(in); err != nil {
		return err
	}
	var err error
	in.issued, err = parseDate("issued_at", in.IssuedAt)
	return err
}

func (in *CertificationInput) ToModel() Certification {
	return Certification{
		Name:                in.Name,
		IssuingOrganization: in.IssuingOrganization,
		IssuedAt:            in.issued,
		CredentialID:        in.CredentialID,
		CredentialURL:       in.CredentialURL,
		SortOrder:           in.SortOrder,
	}
}
