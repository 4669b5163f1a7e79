package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/store"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	publicHandler publicHandler
	adminHandler  adminHandler
	authHandler   authHandler

	// admin CRUD routes, one per collection
	categories     func(chi.Router)
	subcategories  func(chi.Router)
	skills         func(chi.Router)
	experiences    func(chi.Router)
	education      func(chi.Router)
	certifications func(chi.Router)
	projects       func(chi.Router)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error         string               `json:"error"`
	Status        string               `json:"status"`
	Field         string               `json:"field,omitempty"`
	Notifications []store.Notification `json:"notifications,omitempty"`
}

// MutationResponse wraps the row a create or update wrote
type MutationResponse struct {
	Data          any                  `json:"data,omitempty"`
	Notifications []store.Notification `json:"notifications"`
}

// CrashResponse is rendered by the recover boundary
type CrashResponse struct {
	Error   string `json:"error"`
	Retry   bool   `json:"retry"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type AccessDeniedResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type HomeResponse struct {
	Categories []models.Category `json:"categories"`
}

type SkillGroup struct {
	Subcategory models.Subcategory `json:"subcategory"`
	Skills      []models.Skill     `json:"skills"`
}

type CategoryGroup struct {
	Category      models.Category `json:"category"`
	Subcategories []SkillGroup    `json:"subcategories"`
}

type DatedExperience struct {
	models.Experience
	Period string `json:"period"`
}

type DatedEducation struct {
	models.Education
	Period string `json:"period"`
}

type ResumeResponse struct {
	Skills         []CategoryGroup        `json:"skills"`
	Experiences    []DatedExperience      `json:"experiences"`
	Education      []DatedEducation       `json:"education"`
	Certifications []models.Certification `json:"certifications"`
}

type ShowcaseFilter struct {
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags"`
	Active   int      `json:"active"`
}

type ShowcaseResponse struct {
	Projects   []models.Project `json:"projects"`
	Categories []string         `json:"categories"`
	Tags       []string         `json:"tags"`
	Filter     ShowcaseFilter   `json:"filter"`
}

type DashboardResponse struct {
	Entities map[string]store.Summary `json:"entities"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type RecoveryRequest struct {
	Email string `json:"email"`
}

// SessionResponse is the caller's view of its authentication state
type SessionResponse struct {
	Ready    bool            `json:"ready"`
	Phase    string          `json:"phase"`
	Identity *auth.Identity  `json:"identity"`
	Profile  *models.Profile `json:"profile"`
	IsAdmin  bool            `json:"isAdmin"`
}

type LoginResponse struct {
	Identity *auth.Identity `json:"identity"`
	Redirect string         `json:"redirect"`
}

type SignOutResponse struct {
	SignedOut bool   `json:"signedOut"`
	Fallback  bool   `json:"fallback"`
	Redirect  string `json:"redirect"`
}

type RedirectResponse struct {
	Status   string `json:"status"`
	Redirect string `json:"redirect"`
}
