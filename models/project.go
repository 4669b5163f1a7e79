package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project represents a showcase entry with its tags and metrics
type Project struct {
	ID                  uuid.UUID                   `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Title               string                      `json:"title" db:"title" gorm:"type:text;not null"`
	Slug                string                      `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex:idx_projects_slug"`
	Summary             string                      `json:"summary" db:"summary" gorm:"type:text;not null"`
	Description         *string                     `json:"description" db:"description" gorm:"type:text"`
	Role                *string                     `json:"role" db:"role" gorm:"type:text"`
	HeroImageURL        *string                     `json:"hero_image_url" db:"hero_image_url" gorm:"type:text"`
	AdditionalImageURLs datatypes.JSONSlice[string] `json:"additional_image_urls" db:"additional_image_urls" gorm:"type:jsonb"`
	LiveURL             *string                     `json:"live_url" db:"live_url" gorm:"type:text"`
	RepoURL             *string                     `json:"repo_url" db:"repo_url" gorm:"type:text"`
	IsFeatured          bool                        `json:"is_featured" db:"is_featured" gorm:"type:boolean;not null;default:false"`
	Category            *string                     `json:"category" db:"category" gorm:"type:text"`
	SortOrder           int                         `json:"sort_order" db:"sort_order" gorm:"type:integer;not null;default:0"`
	CreatedAt           time.Time                   `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:now()"`

	Tags    []ProjectTag    `json:"project_tags" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Metrics []ProjectMetric `json:"project_metrics" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Project) TableName() string { return "projects" }

func (p Project) DisplayName() string { return p.Title }

// ProjectTag is a free-form label attached to a project
type ProjectTag struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_project_tags_project_id"`
	Tag       string    `json:"tag" db:"tag" gorm:"type:text;not null"`
}

func (ProjectTag) TableName() string { return "project_tags" }

// ProjectMetric is an ordered label/value pair such as "Users" / "10k".
type ProjectMetric struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_project_metrics_project_id"`
	Label     string    `json:"label" db:"label" gorm:"type:text;not null"`
	Value     string    `json:"value" db:"value" gorm:"type:text;not null"`
	SortOrder int       `json:"sort_order" db:"sort_order" gorm:"type:integer;not null;default:0"`
}

func (ProjectMetric) TableName() string { return "project_metrics" }

func (p Project) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// HasAllTags reports whether every tag in want is attached to p.
func (p Project) HasAllTags(want []string) bool {
	names := p.TagNames()
	for _, w := range want {
		if !slices.Contains(names, w) {
			return false
		}
	}
	return true
}

func (p Project) InCategory(category string) bool {
	if category == "" {
		return true
	}
	return p.Category != nil && *p.Category == category
}

// SortMetrics orders metrics by SortOrder, keeping store order for ties.
func (p *Project) SortMetrics() {
	slices.SortStableFunc(p.Metrics, func(a, b ProjectMetric) int { return a.SortOrder - b.SortOrder })
}

type ProjectMetricInput struct {
	Label string `json:"label" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=100"`
}

type ProjectInput struct {
	Title               string               `json:"title" validate:"required,max=200"`
	Slug                string               `json:"slug" validate:"required,max=100,slug"`
	Summary             string               `json:"summary" validate:"required,max=300"`
	Description         *string              `json:"description" validate:"omitempty,max=2000"`
	Role                *string              `json:"role" validate:"omitempty,max=200"`
	HeroImageURL        *string              `json:"hero_image_url" validate:"omitempty,max=500,http_url"`
	AdditionalImageURLs []string             `json:"additional_image_urls" validate:"dive,http_url"`
	LiveURL             *string              `json:"live_url" validate:"omitempty,max=500,http_url"`
	RepoURL             *string              `json:"repo_url" validate:"omitempty,max=500,http_url"`
	IsFeatured          bool                 `json:"is_featured"`
	Category            *string              `json:"category" validate:"omitempty,max=100"`
	SortOrder           int                  `json:"sort_order" validate:"gte=0"`
	Tags                []string             `json:"tags"`
	Metrics             []ProjectMetricInput `json:"metrics" validate:"dive"`
}

func (in *ProjectInput) Validate() error {
	trimText(&in.Title)
	trimText(&in.Slug)
	trimText(&in.Summary)
	trimOptional(&in.Description)
	trimOptional(&in.Role)
	trimOptional(&in.Category)
	trimOptional(&in.HeroImageURL)
	trimOptional(&in.LiveURL)
	trimOptional(&in.RepoURL)
	in.AdditionalImageURLs = compactLines(in.AdditionalImageURLs)
	in.Tags = uniqueTags(in.Tags)
	for i := range in.Metrics {
		trimText(&in.Metrics[i].Label)
		trimText(&in.Metrics[i].Value)
	}

	if err := checkStruct(in); err != nil {
		return err
	}
	return maxLength("tags", strings.Join(in.Tags, ", "), 500)
}

// ToModel builds the project with its children; metric sort order follows input order.
func (in *ProjectInput) ToModel() Project {
	p := Project{
		Title:               in.Title,
		Slug:                in.Slug,
		Summary:             in.Summary,
		Description:         in.Description,
		Role:                in.Role,
		HeroImageURL:        in.HeroImageURL,
		AdditionalImageURLs: datatypes.JSONSlice[string](in.AdditionalImageURLs),
		LiveURL:             in.LiveURL,
		RepoURL:             in.RepoURL,
		IsFeatured:          in.IsFeatured,
		Category:            in.Category,
		SortOrder:           in.SortOrder,
	}
	for _, t := range in.Tags {
		p.Tags = append(p.Tags, ProjectTag{Tag: t})
	}
	for i, m := range in.Metrics {
		p.Metrics = append(p.Metrics, ProjectMetric{Label: m.Label, Value: m.Value, SortOrder: i})
	}
	return p
}

// uniqueTags trims tags, drops empties and collapses duplicates keeping first occurrence.
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range compactLines(tags) {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
