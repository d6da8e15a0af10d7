package api

import (
	"github.com/go-chi/chi/v5"

	"lessoncut/internal/metrics"
)

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware(s.logger))
	r.Use(loggingMiddleware(s.logger))

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/tracks", s.handleTracks)
		r.Post("/placement/suggest", s.handleSuggest)
		r.Post("/placement/validate", s.handleValidate)
		r.Post("/timeline/drop", s.handleDrop)

		r.Post("/export", s.handleStartExport)
		r.Get("/export/status", s.handleExportStatus)
		r.Post("/export/cancel", s.handleCancelExport)

		r.Get("/exports", s.handleListExports)
		r.Get("/exports/{id}", s.handleGetExport)
		r.Delete("/exports/{id}", s.handleDeleteExport)
	})
	return r
}
