package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/service"
)

// PredictionHandler serves prediction requests and per-user history.
type PredictionHandler struct {
	predictions service.PredictionService
	logger      *slog.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictions service.PredictionService, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictions: predictions,
		logger:      logger,
	}
}

// RegisterRoutes registers prediction routes.
//
// Routes:
//   - POST /predict
//   - GET /user/{email}/history
func (h *PredictionHandler) RegisterRoutes(rt *Router) {
	rt.HandleFunc("POST /predict", h.Predict)
	rt.HandleFunc("GET /user/{email}/history", h.History)
}

// =============================================================================
// POST /predict
// =============================================================================

// predictRequest is the JSON body of /predict. Required fields are checked
// by the service so that clients get a single "Missing required fields."
// message; the tags here only bound sizes and formats.
type predictRequest struct {
	Type         string               `json:"type"`
	Data         string               `json:"data"`
	Name         string               `json:"name" validate:"max=200"`
	BirthDetails *domain.BirthDetails `json:"birth_details"`
	Email        string               `json:"email" validate:"max=254"`
	Plan         string               `json:"plan" validate:"max=32"`
}

// Predict handles POST /predict.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	const op = "handler.predict"

	var req predictRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.predictions.Predict(r.Context(), service.PredictRequest{
		Type:         req.Type,
		Data:         req.Data,
		Name:         req.Name,
		BirthDetails: req.BirthDetails,
		Email:        req.Email,
		Plan:         req.Plan,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// GET /user/{email}/history
// =============================================================================

type historyEntry struct {
	ID              string                  `json:"prediction_id"`
	Name            string                  `json:"name"`
	Type            domain.PredictionType   `json:"type"`
	Summary         string                  `json:"summary"`
	Insights        json.RawMessage         `json:"insights"`
	Plan            domain.Plan             `json:"plan"`
	BirthDetails    *domain.BirthDetails    `json:"birth_details,omitempty"`
	PremiumFeatures *domain.PremiumFeatures `json:"premium_features,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

type historyResponse struct {
	Email       string         `json:"email"`
	Predictions []historyEntry `json:"predictions"`
	Count       int            `json:"count"`
}

// History handles GET /user/{email}/history?limit=N.
func (h *PredictionHandler) History(w http.ResponseWriter, r *http.Request) {
	const op = "handler.history"

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "limit must be a non-negative integer."))
			return
		}
		limit = n
	}

	email := domain.NormalizeEmail(r.PathValue("email"))
	preds, err := h.predictions.History(r.Context(), email, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := historyResponse{
		Email:       email,
		Predictions: make([]historyEntry, 0, len(preds)),
	}
	for i := range preds {
		p := &preds[i]
		insights := p.PredictionData.Insights
		if len(insights) == 0 {
			insights = json.RawMessage(`{}`)
		}
		resp.Predictions = append(resp.Predictions, historyEntry{
			ID:              p.ID,
			Name:            p.Name,
			Type:            p.Type,
			Summary:         p.PredictionData.Summary,
			Insights:        insights,
			Plan:            p.Plan,
			BirthDetails:    p.BirthDetails,
			PremiumFeatures: p.PremiumFeatures(),
			CreatedAt:       p.CreatedAt,
		})
	}
	resp.Count = len(resp.Predictions)

	writeJSON(w, http.StatusOK, resp)
}
