// Package http provides HTTP routing and middleware configuration
// for the contact service.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the API.
//
// Routes:
//
//	GET    /api/health              → health check
//	POST   /api/register            → authHandler.Register
//	POST   /api/login               → authHandler.Login
//	GET    /api/share/{code}        → shareHandler.Redeem (public)
//	GET    /api/contacts            → contactHandler.List
//	POST   /api/contacts            → contactHandler.Create
//	GET    /api/contacts/export     → contactHandler.Export
//	POST   /api/contacts/import     → contactHandler.Import
//	PUT    /api/contacts/{id}       → contactHandler.Update
//	DELETE /api/contacts/{id}       → contactHandler.Delete
//	POST   /api/contacts/{id}/share → shareHandler.Issue
//	DELETE /api/shares/{code}       → shareHandler.Revoke
//
// Middleware chain (applied in order):
//  1. Recoverer                           - turns panics into 500s
//  2. AllowContentType("application/json") - rejects non-JSON request bodies
//  3. WithRequestLogging(logger)          - logs incoming requests
//  4. TokenAuth (protected group only)    - enforces bearer token auth
func NewRouter(
	authHandler *AuthHandler,
	contactHandler *ContactHandler,
	shareHandler *ShareHandler,
	tokenSecret []byte,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", health)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/share/{code}", shareHandler.Redeem)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(tokenSecret))

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactHandler.List)
				r.Post("/", contactHandler.Create)
				r.Get("/export", contactHandler.Export)
				r.Post("/import", contactHandler.Import)
				r.Put("/{id}", contactHandler.Update)
				r.Delete("/{id}", contactHandler.Delete)
				r.Post("/{id}/share", shareHandler.Issue)
			})
			r.Delete("/shares/{code}", shareHandler.Revoke)
		})
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
