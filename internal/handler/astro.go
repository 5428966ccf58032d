package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/service"
)

// AstroHandler serves the chart, tip of the day and featured gallery.
type AstroHandler struct {
	astro   *service.AstroService
	gallery *service.GalleryService
	logger  *slog.Logger
}

// NewAstroHandler creates a new AstroHandler.
func NewAstroHandler(astro *service.AstroService, gallery *service.GalleryService, logger *slog.Logger) *AstroHandler {
	return &AstroHandler{
		astro:   astro,
		gallery: gallery,
		logger:  logger,
	}
}

// RegisterRoutes registers astrology content routes.
//
// Routes:
//   - POST /astro-chart
//   - GET /tip-of-the-day
//   - GET /gallery
//   - GET /lifepath
func (h *AstroHandler) RegisterRoutes(rt *Router) {
	rt.HandleFunc("POST /astro-chart", h.Chart)
	rt.HandleFunc("GET /tip-of-the-day", h.Tip)
	rt.HandleFunc("GET /gallery", h.Gallery)
	rt.HandleFunc("GET /lifepath", h.LifePath)
}

// chartRequest keeps both fields raw so a malformed birth_details or a
// non-string user_plan still reaches the plan gate.
type chartRequest struct {
	BirthDetails json.RawMessage `json:"birth_details"`
	UserPlan     json.RawMessage `json:"user_plan"`
}

// plan returns user_plan when it is a JSON string and "" otherwise.
func (c chartRequest) plan() string {
	var plan string
	if err := json.Unmarshal(c.UserPlan, &plan); err != nil {
		return ""
	}
	return plan
}

// premiumRequired is the 403 body for plan-gated features.
type premiumRequired struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	UpgradeURL string `json:"upgrade_url"`
	Code       string `json:"code"`
}

// Chart handles POST /astro-chart. The plan gate is checked before any
// other field, so only a body that is not a JSON object gets a 400 ahead of it.
func (h *AstroHandler) Chart(w http.ResponseWriter, r *http.Request) {
	const op = "handler.astro_chart"

	var req chartRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan := req.plan()
	res, err := h.astro.Chart(r.Context(), service.ChartRequest{
		BirthDetails: req.BirthDetails,
		UserPlan:     plan,
	})
	switch code := domain.ErrorCode(err); {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case code == domain.EFORBIDDEN:
		h.logger.Info("premium feature requested", "path", r.URL.Path, "plan", plan)
		writeJSON(w, http.StatusForbidden, premiumRequired{
			Error:      "Premium feature",
			Message:    domain.ErrorMessage(err),
			UpgradeURL: service.UpgradeURL,
			Code:       code,
		})
	case domain.IsServerSide(code):
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to generate astro chart"))
	default:
		ErrorResponse(w, r, h.logger, err)
	}
}

// Tip handles GET /tip-of-the-day.
func (h *AstroHandler) Tip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.astro.Today())
}

// Gallery handles GET /gallery?limit=N. Unparseable limits fall back to
// the default.
func (h *AstroHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	g, err := h.gallery.Featured(r.Context(), limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// LifePath handles GET /lifepath?dob=YYYY-MM-DD.
func (h *AstroHandler) LifePath(w http.ResponseWriter, r *http.Request) {
	res, err := h.astro.LifePath(r.URL.Query().Get("dob"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
