package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, guardWait time.Duration, siteURL string) *routeHandlers {
	catalog := deps.Catalog

	return &routeHandlers{
		publicHandler: newPublicHandler(catalog),
		adminHandler:  newAdminHandler(catalog, deps.Images),
		authHandler:   newAuthHandler(deps.Registry, guardWait, siteURL),

		categories:     newResourceHandler(catalog.Categories).routes,
		subcategories:  newResourceHandler(catalog.Subcategories).routes,
		skills:         newResourceHandler(catalog.Skills).routes,
		experiences:    newResourceHandler(catalog.Experiences).routes,
		education:      newResourceHandler(catalog.Education).routes,
		certifications: newResourceHandler(catalog.Certifications).routes,
		projects:       newResourceHandler(catalog.Projects).routes,
	}
}

// healthCheck reports uptime and whether the database answers
func healthCheck(startupTime time.Time, ping func(ctx context.Context) error) http.HandlerFunc {
	responder := NewResponder(log.With().Str("handlerName", "healthCheck").Logger())

	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:   "ok",
			Uptime:   time.Since(startupTime).Round(time.Second).String(),
			Database: "ok",
		}
		status := http.StatusOK
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.Warn().Err(err).Msg("Health check failed to reach the database")
				response.Status, response.Database = "degraded", "unreachable"
				status = http.StatusServiceUnavailable
			}
		}
		responder.WriteJSONStatus(w, status, response)
	}
}

func notFound() http.HandlerFunc {
	responder := NewResponder(log.Logger)

	return func(w http.ResponseWriter, r *http.Request) {
		responder.WriteJSONStatus(w, http.StatusNotFound, ErrorResponse{
			Error:  "The page you're looking for doesn't exist.",
			Status: "not_found",
		})
	}
}
