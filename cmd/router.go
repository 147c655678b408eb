package main

import (
	"net/http"

	"ModMate/api"

	"github.com/go-chi/chi/v5"
)

func SetupRouter(h *api.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", h.HandleHealthCheck)
	r.Post("/events", h.HandleEvents)

	return r
}
