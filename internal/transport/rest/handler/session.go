package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"stylequiz/internal/model"
	"stylequiz/internal/service"
	"stylequiz/internal/transport/rest/middleware"
)

const (
	maxUploadBytes = 32 << 20
	maxPhotos      = 10
)

// SessionHandler handles questionnaire session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// StartRequest is the body of POST /v1/sessions/{id}/start
type StartRequest struct {
	PhotoUploadFirst bool `json:"photoUploadFirst"`
}

// AnswerRequest is the body of PUT /v1/sessions/{id}/answers
type AnswerRequest struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// NextResponse carries the report once the last question is passed
type NextResponse struct {
	Session *model.SessionView `json:"session"`
	Report  *model.Report      `json:"report,omitempty"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sessionSvc.Create(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.View(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Start handles POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	view, err := h.sessionSvc.Start(r.Context(), middleware.GetSessionID(r.Context()), req.PhotoUploadFirst)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Answer handles PUT /v1/sessions/{id}/answers
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" || req.OptionID == "" {
		writeError(w, http.StatusBadRequest, "questionId and optionId are required")
		return
	}

	view, err := h.sessionSvc.Answer(r.Context(), middleware.GetSessionID(r.Context()), req.QuestionID, req.OptionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Next handles POST /v1/sessions/{id}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	view, report, err := h.sessionSvc.Next(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NextResponse{Session: view, Report: report})
}

// Prev handles POST /v1/sessions/{id}/prev
func (h *SessionHandler) Prev(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Prev(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Restart handles POST /v1/sessions/{id}/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Restart(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UploadPhotos handles POST /v1/sessions/{id}/photos (multipart field "photos")
func (h *SessionHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["photos"]
	if len(files) > maxPhotos {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d photos per upload", maxPhotos))
		return
	}

	photos := make([]service.Photo, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read "+fh.Filename)
			return
		}
		photos = append(photos, service.Photo{FileName: fh.Filename, Data: data})
	}

	view, err := h.sessionSvc.SubmitPhotos(r.Context(), middleware.GetSessionID(r.Context()), photos)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Report handles GET /v1/sessions/{id}/report
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.sessionSvc.Report(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
