package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cinehub/backoffice/internal/api/middleware"
	"github.com/cinehub/backoffice/internal/job"
)

type JobHandler struct {
	tracker *job.Tracker
}

func NewJobHandler(tracker *job.Tracker) *JobHandler {
	return &JobHandler{tracker: tracker}
}

// ListJobs returns the requesting admin's translation jobs, or every
// admin's with ?all=true.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var adminID int64
	if r.URL.Query().Get("all") != "true" {
		if claims := middleware.GetClaims(r); claims != nil {
			adminID = claims.UserID
		}
	}

	jobs, err := h.tracker.List(r.Context(), adminID, limitParam(r, "limit", 50))
	if err != nil {
		fault500(w, "failed to list jobs", err)
		return
	}
	jsonResponse(w, jobs, http.StatusOK)
}

// GetJob returns a single job by ID
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing job ID", http.StatusBadRequest)
		return
	}

	j, err := h.tracker.Get(r.Context(), id)
	if errors.Is(err, job.ErrNotFound) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		fault500(w, "failed to load job", err)
		return
	}
	jsonResponse(w, j, http.StatusOK)
}
