package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"seekmark/internal/httpserver/deps"
	"seekmark/internal/httpserver/handlers"
)

func init() { Register(registerHealthz, middleware.Timeout(2*time.Second)) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}
