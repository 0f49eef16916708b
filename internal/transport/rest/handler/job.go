package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"stylequiz/internal/model"
	"stylequiz/internal/service"
	"stylequiz/internal/transport/rest/middleware"
)

// JobHandler handles background removal, color analysis and job status endpoints
type JobHandler struct {
	jobSvc   *service.JobService
	bgSvc    *service.BackgroundRemovalService
	colorSvc *service.ColorAnalysisService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobSvc *service.JobService, bgSvc *service.BackgroundRemovalService, colorSvc *service.ColorAnalysisService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc, bgSvc: bgSvc, colorSvc: colorSvc}
}

// ImageRequest carries the URL of the image to process
type ImageRequest struct {
	URL string `json:"url"`
}

// JobResponse is returned when a job is accepted
type JobResponse struct {
	JobID  string          `json:"jobId"`
	Status model.JobStatus `json:"status"`
}

// RemoveBackground handles POST /v1/background-removal
func (h *JobHandler) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.bgSvc.Remove(r.Context(), "", req.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{JobID: job.ID, Status: job.Status})
}

// Get handles GET /v1/jobs/{jobId}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSvc.Get(r.Context(), mux.Vars(r)["jobId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Result handles GET /v1/jobs/{jobId}/result. Images are returned as-is.
func (h *JobHandler) Result(w http.ResponseWriter, r *http.Request) {
	job, data, err := h.jobSvc.GetResult(r.Context(), mux.Vars(r)["jobId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", job.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// AnalyzeColorStep handles POST /v1/sessions/{id}/color/{step}
func (h *JobHandler) AnalyzeColorStep(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	step := model.ColorStep(mux.Vars(r)["step"])
	job, err := h.colorSvc.AnalyzeStep(r.Context(), middleware.GetSessionID(r.Context()), step, req.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{JobID: job.ID, Status: job.Status})
}

// ClearColorStep handles DELETE /v1/sessions/{id}/color/{step}
func (h *JobHandler) ClearColorStep(w http.ResponseWriter, r *http.Request) {
	step := model.ColorStep(mux.Vars(r)["step"])
	if err := h.colorSvc.ClearStep(r.Context(), middleware.GetSessionID(r.Context()), step); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearColor handles DELETE /v1/sessions/{id}/color
func (h *JobHandler) ClearColor(w http.ResponseWriter, r *http.Request) {
	if err := h.colorSvc.ClearAll(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FinalizeColor handles POST /v1/sessions/{id}/color/final
func (h *JobHandler) FinalizeColor(w http.ResponseWriter, r *http.Request) {
	job, err := h.colorSvc.Finalize(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{JobID: job.ID, Status: job.Status})
}
