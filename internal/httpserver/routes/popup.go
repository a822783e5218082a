package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"seekmark/internal/httpserver/deps"
	"seekmark/internal/httpserver/handlers"
)

// Delete and edit block on the page surface round trip, so the budget here
// exceeds the surface request timeout.
func init() { Register(registerPopup, middleware.Timeout(10*time.Second)) }

func registerPopup(r chi.Router, d deps.Deps) {
	r.Route("/api/popup", func(r chi.Router) {
		r.Get("/", handlers.PopupView(d))
		r.Get("/export", handlers.PopupExport(d))
		r.Post("/import", handlers.PopupImport(d))
		r.Post("/play", handlers.PopupPlay(d))
		r.Post("/delete", handlers.PopupDelete(d))
		r.Post("/edit", handlers.PopupEdit(d))
	})
}
