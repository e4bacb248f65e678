package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts every endpoint under /api. allowedOrigins feeds the CORS
// middleware.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Get("/{id}", h.GetTask)
			r.Put("/{id}", h.UpdateTask)
			r.Delete("/{id}", h.DeleteTask)
			r.Put("/{id}/etc", h.UpdateEtc)
			r.Get("/{id}/sums", h.GetTaskSums)
			r.Post("/{id}/move-up", h.MoveTask("up"))
			r.Post("/{id}/move-down", h.MoveTask("down"))
			r.Post("/{id}/renumber", h.MoveTask("renumber"))
			r.Post("/{id}/move", h.MoveTask("reparent"))
		})

		r.Get("/sums", h.GetSubTasksSums)

		r.Route("/contributions", func(r chi.Router) {
			r.Get("/", h.ListContributions)
			r.Post("/", h.CreateContribution)
			r.Delete("/", h.DeleteContribution)
		})

		r.Route("/report", func(r chi.Router) {
			r.Get("/", h.BuildReport)
			r.Get("/plan", h.PlanReport)
		})

		r.Get("/durations", h.ListDurations)
		r.Get("/collaborators", h.ListCollaborators)
	})

	return r
}
