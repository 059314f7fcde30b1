package http

import (
	"fmt"
	"net/http"

	"github.com/deepscout/deepscout/internal/domain/research"
	"github.com/deepscout/deepscout/internal/service"
)

// StartResearch accepts a query and starts a research task. The response
// returns immediately with the new task id; progress streams over the
// WebSocket and the status endpoint.
func (h *Handlers) StartResearch(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[research.SubmitRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	taskID, err := h.research.Submit(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "could not start research")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"task_id": taskID})
}

// GetResearchStatus returns a snapshot of the task's current state.
func (h *Handlers) GetResearchStatus(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	snap, err := h.research.Status(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// ListResearch returns snapshots of all known tasks.
func (h *Handlers) ListResearch(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.research.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "could not list tasks")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// DownloadReport serves the completed report as a plain-text attachment.
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	report, err := h.research.DownloadReport(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "report not available")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", service.ReportFilename(id)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}
