package router

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leca/photo-editor/internal/api"
	"github.com/leca/photo-editor/internal/config"
	"github.com/leca/photo-editor/internal/editor"
	"github.com/leca/photo-editor/internal/handler"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	Editor *editor.Service
	Config *config.Config
	Router chi.Router
}

// New creates a new Server with a fully configured chi router.
func New(svc *editor.Service, cfg *config.Config) *Server {
	s := &Server{Editor: svc, Config: cfg}
	h := handler.New(svc, cfg)

	r := chi.NewRouter()

	// CORS must run first so preflight OPTIONS requests are answered.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "X-Remaining-Edits", "X-Edit-Action"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check (no auth required).
	r.Get("/health", s.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(api.AuthMiddleware(cfg.AuthToken))

			r.Get("/actions", h.ListActions)

			r.Route("/users/{user_id}", func(r chi.Router) {
				r.Use(api.UserIDMiddleware)

				r.Put("/", h.RegisterUser)
				r.Put("/photo", h.UploadPhoto)
				r.Post("/edits/{action}", h.EditPhoto)
				r.Get("/edits", h.ListEdits)
				r.Post("/ai/{kind}", h.DescribePhoto)
				r.Get("/quota", h.GetQuota)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(api.AdminMiddleware(cfg.AdminToken))

			r.Get("/stats", h.GetStats)
			r.With(api.UserIDMiddleware).Post("/users/{user_id}/premium", h.GrantPremium)
		})
	})

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{"status": "ok", "ai_enabled": s.Editor.AIEnabled()}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Health: failed to encode response", "error", err)
	}
}
