package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
// /health is not registered here; the caller wires HealthHandler so it
// can feed in the WebSocket hub and broker address.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Research tasks
		r.Post("/research", h.StartResearch)
		r.Get("/research", h.ListResearch)
		r.Get("/research/{id}", h.GetResearchStatus)
		r.Get("/research/{id}/download", h.DownloadReport)

		// Accounts
		r.Post("/users", h.CreateUser)
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)
	})
}
