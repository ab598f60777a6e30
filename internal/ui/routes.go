package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ontomaint/internal/ui/assets"
)

// MountRoutes registers the dashboard under the router it is given,
// normally mounted at /ui.
func MountRoutes(r chi.Router, h *Handler) {
	r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(assets.Static()))))

	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Home)
		r.Get("/failures", h.FailureDetail)
		r.Get("/templates", h.TemplatesList)
		r.Get("/templates/{templateName}", h.TemplateDetail)
		r.Get("/templates/{templateName}/download.csv", h.TemplateDownload)
		r.Get("/console", h.ConsolePage)
		r.Post("/console", h.ConsoleRun)
		r.Get("/history", h.HistoryList)
	})
}
