// Package api exposes the personalization engine over HTTP for the
// storefront and back-office UIs.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/printcraft/personalization/internal/cache"
	"github.com/printcraft/personalization/internal/config"
	"github.com/printcraft/personalization/internal/sender"
	"github.com/printcraft/personalization/internal/store"
	"github.com/printcraft/personalization/internal/templates"
)

// Server holds the service's HTTP dependencies.
type Server struct {
	store  *store.Store
	cache  *cache.Cache
	sender sender.Sender
	liquid *templates.Service
	cfg    *config.Config
}

// NewServer creates the API server. cache and mailSender may be nil; the
// corresponding features degrade (no caching, sends rejected).
func NewServer(cfg *config.Config, st *store.Store, ca *cache.Cache, mailSender sender.Sender) *Server {
	return &Server{
		store:  st,
		cache:  ca,
		sender: mailSender,
		liquid: templates.NewService(),
		cfg:    cfg,
	}
}

// Routes builds the router with middleware and all endpoints.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/personalization", func(r chi.Router) {
			r.Get("/variables", s.handleGetVariables)
			r.Post("/preview", s.handlePreview)
			r.Post("/validate", s.handleValidate)
			r.Post("/send", s.handleSend)
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/{customerID}/recommendations", s.handleRecommendations)
			r.Post("/{customerID}/refresh", s.handleRefreshCustomer)
		})
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/{templateID}", s.handleGetTemplate)
			r.Put("/{templateID}", s.handleUpdateTemplate)
			r.Delete("/{templateID}", s.handleDeleteTemplate)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "personalization"})
}
