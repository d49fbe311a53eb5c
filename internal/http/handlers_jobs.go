// Package httpx provides HTTP handlers and utilities for the jobrelay API.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/relayworks/jobrelay/internal/domain/model"
	"github.com/relayworks/jobrelay/internal/service"
)

// JobHandlers provides HTTP handlers for job submission and status resolution.
type JobHandlers struct {
	Submission *service.SubmissionService
	Status     *service.StatusService
}

// SubmitJob handles HTTP requests to submit a new job. The job is accepted for
// asynchronous processing, so success is 202 with the assigned identifier
// rather than a completed resource.
func (h *JobHandlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Submission.Submit(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, model.JobAcceptedResponse{RequestID: job.ID})
}

// GetJobStatus handles HTTP requests to resolve a single job's external view.
func (h *JobHandlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	view, err := h.Status.Resolve(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// jobViewEntry pairs an identifier with its external view for list responses.
type jobViewEntry struct {
	RequestID string `json:"request_id"`
	*model.JobView
}

// ListJobs handles HTTP requests to list the external view of every job.
// The response is streamed as it is produced; the store is never asked to
// materialise the full set in memory.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	wroteHeader := false
	first := true
	err := h.Status.ResolveAll(r.Context(), func(id string, view *model.JobView) error {
		if !wroteHeader {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("[")); err != nil {
				return err
			}
			wroteHeader = true
		}
		if !first {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		first = false
		if err := enc.Encode(jobViewEntry{RequestID: id, JobView: view}); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	if err != nil {
		if !wroteHeader {
			WriteAppError(w, err)
		}
		// Mid-stream failures cannot change the status line; the truncated
		// body is the signal.
		return
	}

	if !wroteHeader {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("[")); err != nil {
			return
		}
	}
	_, _ = w.Write([]byte("]"))
}
