package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/semestra/internal/recordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *recordservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/modules", h.ListModules)

	r.Get("/semesters", h.ListSemesters)
	r.Get("/semesters/{id}", h.GetSemester)
	r.Put("/semesters/{id}", h.PutSemester)
	r.Delete("/semesters/{id}", h.DeleteSemester)

	r.Get("/summary", h.Summary)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
