package handlers

import (
	"net/http"

	"github.com/turtacn/carverdict/internal/application/assessment"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
)

// AssessmentHandler exposes the assessment service over HTTP.
type AssessmentHandler struct {
	svc         assessment.Service
	logger      logging.Logger
	maxBodySize int64
}

// NewAssessmentHandler creates a new AssessmentHandler.  maxBodySize <= 0
// selects DefaultMaxBodySize.
func NewAssessmentHandler(svc assessment.Service, logger logging.Logger, maxBodySize int64) *AssessmentHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &AssessmentHandler{svc: svc, logger: logger, maxBodySize: maxBodySize}
}

// RegisterRoutes registers the assessment routes.
func (h *AssessmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/assessments", h.Assess)
	mux.HandleFunc("POST /api/v1/prices", h.EstimatePrice)
	mux.HandleFunc("POST /api/v1/survival", h.AnalyzeSurvival)
	mux.HandleFunc("POST /api/v1/thresholds", h.Thresholds)
}

// Assess handles POST /api/v1/assessments.
func (h *AssessmentHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req assessment.Request
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	result, err := h.svc.Assess(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// EstimatePrice handles POST /api/v1/prices.
func (h *AssessmentHandler) EstimatePrice(w http.ResponseWriter, r *http.Request) {
	var req assessment.PriceRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	result, err := h.svc.EstimatePrice(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AnalyzeSurvival handles POST /api/v1/survival.
func (h *AssessmentHandler) AnalyzeSurvival(w http.ResponseWriter, r *http.Request) {
	var req assessment.SurvivalRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	result, err := h.svc.AnalyzeSurvival(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Thresholds handles POST /api/v1/thresholds.
func (h *AssessmentHandler) Thresholds(w http.ResponseWriter, r *http.Request) {
	var req assessment.ThresholdRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	result, err := h.svc.Thresholds(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
