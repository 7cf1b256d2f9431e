package httpapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/http/dto"
)

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var q dto.JobListQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	jobs, err := h.Jobs.List(q.IncludeDismissed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) JobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Jobs.Stats()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) DismissJob(w http.ResponseWriter, r *http.Request) {
	if err := h.Jobs.Dismiss(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearJobs dismisses every finished job.
func (h *Handler) ClearJobs(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Jobs.DismissFinished(); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
