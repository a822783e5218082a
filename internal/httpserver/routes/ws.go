package routes

import (
	"github.com/go-chi/chi/v5"

	"seekmark/internal/httpserver/deps"
	"seekmark/internal/httpserver/handlers"
)

func init() { Register(registerWS) }

func registerWS(r chi.Router, d deps.Deps) {
	r.Get("/ws", handlers.WS(d))
}
