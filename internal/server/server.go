// Package server implements the admin REST API: engagements, translations
// and the people rosters, plus the health endpoint. Handlers validate and
// sanitize before anything reaches a store; responses use the error shape
// the admin UI already speaks.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/koradi/koradi-admin/internal/certs"
	httpmiddleware "github.com/koradi/koradi-admin/internal/http"
	"github.com/koradi/koradi-admin/internal/logger"
	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

// Config carries the handler-level settings.
type Config struct {
	// CORSOrigins lists the origins allowed to call the API from a browser.
	// Empty disables CORS handling entirely.
	CORSOrigins []string

	// RateLimit is the per-client request budget per minute. Zero disables
	// the limiter.
	RateLimit int

	// Credential is the boot-time audit of the serving certificate, reported
	// on /healthz. Optional.
	Credential *certs.Status
}

// Server serves the admin API over a set of content stores.
type Server struct {
	stores *store.Stores
	cfg    Config
}

func New(stores *store.Stores, cfg Config) *Server {
	return &Server{stores: stores, cfg: cfg}
}

// Handler assembles the router and middleware stack.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(httpmiddleware.ClientIPMiddleware())
	r.Use(logger.AccessLog(log))
	r.Use(observeRequests())
	r.Use(securityHeaders)
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.Limit(s.cfg.RateLimit, time.Minute,
			httprate.WithKeyFuncs(httpmiddleware.RateLimitKey)))
	}
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(withCORS(s.cfg.CORSOrigins))
	}

	r.Get("/healthz", s.health)

	r.Route("/engs", func(r chi.Router) {
		r.Post("/", s.createEngagement)
		r.Get("/", s.listEngagements)
		r.Patch("/", s.updateEngagement)
		r.Delete("/{id}", s.deleteEngagement)
	})

	r.Route("/translations", func(r chi.Router) {
		r.Post("/", s.createTranslation)
		r.Get("/", s.listTranslations)
		r.Patch("/", s.updateTranslation)
		r.Delete("/{id}", s.deleteTranslation)
	})

	for _, kind := range models.RosterKinds() {
		r.Route("/"+string(kind), func(r chi.Router) {
			r.Get("/", s.listRoster(kind))
			r.Post("/{name}", s.addRosterEntry(kind))
			r.Delete("/{name}", s.removeRosterEntry(kind))
		})
	}

	return r
}

func withCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler
}
