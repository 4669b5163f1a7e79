package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers the public, auth and admin routes. Everything except
// the health check runs inside the caller's auth session.
func setupRoutes(r chi.Router, handlers *routeHandlers, sessions sessionMiddleware, guard guardMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(sessions.attach)

		// Public pages
		r.Get("/", handlers.publicHandler.home())
		r.Get("/resume", handlers.publicHandler.resume())
		r.Get("/showcase", handlers.publicHandler.showcase())
		r.Get("/showcase/{slug}", handlers.publicHandler.project())

		// Auth
		r.Post("/login", handlers.authHandler.login())
		r.Post("/logout", handlers.authHandler.logout())
		r.Get("/session", handlers.authHandler.session())
		r.Post("/reset-password/request", handlers.authHandler.requestPasswordReset())

		r.Group(func(r chi.Router) {
			r.Use(guard.require(false))
			r.Post("/session/profile", handlers.authHandler.refreshProfile())
			r.Post("/reset-password", handlers.authHandler.resetPassword())
		})

		// Admin panel
		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.require(true))
			r.Use(withNotifications)

			r.Get("/", handlers.adminHandler.dashboard())
			r.Get("/project-tags", handlers.adminHandler.projectTags())

			r.Route("/categories", handlers.categories)
			r.Route("/subcategories", handlers.subcategories)
			r.Route("/skills", handlers.skills)
			r.Route("/experiences", handlers.experiences)
			r.Route("/education", handlers.education)
			r.Route("/certifications", handlers.certifications)
			r.Route("/projects", func(r chi.Router) {
				r.Post("/images", handlers.adminHandler.uploadImage())
				handlers.projects(r)
			})
		})
	})

	r.NotFound(notFound())
}
