package handler

import (
	"net/http"
	"strconv"

	"stylequiz/internal/model"
	"stylequiz/internal/quiz"
	"stylequiz/internal/service"
)

// CatalogHandler serves the questionnaire content and style popularity
type CatalogHandler struct {
	engine    *quiz.Engine
	reportSvc *service.ReportService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(engine *quiz.Engine, reportSvc *service.ReportService) *CatalogHandler {
	return &CatalogHandler{engine: engine, reportSvc: reportSvc}
}

// CatalogResponse lists questions and style categories
type CatalogResponse struct {
	Questions []model.Question      `json:"questions"`
	Styles    []model.StyleCategory `json:"styles"`
}

// Get handles GET /v1/catalog
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CatalogResponse{
		Questions: h.engine.Questions(),
		Styles:    h.engine.Styles(),
	})
}

// StyleStats handles GET /v1/stats/styles?limit=N
func (h *CatalogHandler) StyleStats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	stats, err := h.reportSvc.StyleStats(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"styles": stats})
}
