package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sceneindex/markerd/internal/engine"
	"github.com/sceneindex/markerd/internal/middleware"
)

// NewRouter builds the chi router mounting every spec §6 wire operation
// under /api/v1. Operations are exposed as one route each rather than a
// single dispatch endpoint so the transport can rely on chi's own method
// and path matching instead of re-implementing it.
func NewRouter(svc *engine.Service) http.Handler {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return middleware.RequestID(next.ServeHTTP)
	})
	r.Use(func(next http.Handler) http.Handler {
		return middleware.Compression(next.ServeHTTP)
	})
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/query", h.Query)
		r.Post("/add", h.Add)
		r.Post("/edit", h.Edit)
		r.Post("/delete", h.Delete)
		r.Post("/shift", h.Shift)
		r.Get("/check_shift", h.CheckShift)
		r.Get("/get_sections", h.GetSections)
		r.Get("/get_section", h.GetSection)
		r.Get("/get_seasons", h.GetSeasons)
		r.Get("/get_episodes", h.GetEpisodes)
		r.Get("/get_stats", h.GetStats)
		r.Get("/purge_check", h.PurgeCheck)
		r.Get("/all_purges", h.AllPurges)
		r.Post("/restore", h.Restore)
		r.Post("/ignore_purge", h.IgnorePurge)
		r.Post("/suspend", h.Suspend)
		r.Post("/resume", h.Resume)
		r.NotFound(NotFound)
	})

	return r
}
