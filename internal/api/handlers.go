package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/recordservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *recordservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recordservice.Service) *Handler {
	return &Handler{svc: svc}
}

// semesterParam parses the {id} path segment ("Y2S1" or "3").
func semesterParam(w http.ResponseWriter, r *http.Request) (models.SemesterID, bool) {
	id, err := models.ParseSemesterID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown semester"))
		return 0, false
	}
	return id, true
}

func setETag(w http.ResponseWriter, rec models.SemesterRecord) {
	if rec.Checksum != "" {
		w.Header().Set("ETag", `"`+rec.Checksum+`"`)
	}
}

// ListModules handles GET /api/modules.
//
//	@Summary		List the module catalog
//	@Tags			modules
//	@Produce		json
//	@Success		200	{object}	ModuleListResponse
//	@Security		BearerAuth
//	@Router			/modules [get]
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	mods, err := h.svc.ListModules(r.Context())
	if err != nil {
		writeError(w, "list modules", err)
		return
	}
	writeJSON(w, http.StatusOK, ModuleListResponse{Modules: mods})
}

// ListSemesters handles GET /api/semesters.
//
//	@Summary		List saved semesters ordered by semester
//	@Tags			semesters
//	@Produce		json
//	@Success		200	{object}	SemesterListResponse
//	@Security		BearerAuth
//	@Router			/semesters [get]
func (h *Handler) ListSemesters(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListRecords(r.Context())
	if err != nil {
		writeError(w, "list semesters", err)
		return
	}
	writeJSON(w, http.StatusOK, SemesterListResponse{Semesters: recs})
}

// GetSemester handles GET /api/semesters/{id}.
//
//	@Summary		Get one saved semester
//	@Tags			semesters
//	@Produce		json
//	@Param			id	path		string	true	"Semester code (Y1S1..Y4S2) or ordinal"
//	@Success		200	{object}	models.SemesterRecord
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/semesters/{id} [get]
func (h *Handler) GetSemester(w http.ResponseWriter, r *http.Request) {
	id, ok := semesterParam(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, "get semester", err)
		return
	}
	setETag(w, rec)
	writeJSON(w, http.StatusOK, rec)
}

// PutSemester handles PUT /api/semesters/{id}.
//
//	@Summary		Create or replace a semester
//	@Tags			semesters
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Semester code or ordinal"
//	@Param			If-Match	header		string					false	"Checksum of the stored semester"
//	@Param			body		body		UpsertSemesterRequest	true	"Semester content"
//	@Success		200			{object}	models.SemesterRecord
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/semesters/{id} [put]
func (h *Handler) PutSemester(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, ok := semesterParam(w, r)
	if !ok {
		return
	}
	var req UpsertSemesterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	rec, err := h.svc.UpsertRecord(r.Context(), id, req.SemesterName, req.Subjects, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "put semester", err)
		return
	}
	setETag(w, rec)
	writeJSON(w, http.StatusOK, rec)
}

// DeleteSemester handles DELETE /api/semesters/{id}.
//
//	@Summary		Delete a semester
//	@Tags			semesters
//	@Param			id	path	string	true	"Semester code or ordinal"
//	@Success		204	"Semester deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/semesters/{id} [delete]
func (h *Handler) DeleteSemester(w http.ResponseWriter, r *http.Request) {
	id, ok := semesterParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRecord(r.Context(), id); err != nil {
		writeError(w, "delete semester", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/summary.
//
//	@Summary		CGPA over every saved semester
//	@Tags			semesters
//	@Produce		json
//	@Success		200	{object}	SummaryResponse
//	@Security		BearerAuth
//	@Router			/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context())
	if err != nil {
		writeError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
