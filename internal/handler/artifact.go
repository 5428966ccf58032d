package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/service"
)

// ArtifactHandler queues PDF reports and memes and reports job status.
type ArtifactHandler struct {
	artifacts *service.ArtifactService
	logger    *slog.Logger
}

// NewArtifactHandler creates a new ArtifactHandler.
func NewArtifactHandler(artifacts *service.ArtifactService, logger *slog.Logger) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts, logger: logger}
}

// RegisterRoutes registers artifact routes.
//
// Routes:
//   - POST /generate-pdf
//   - POST /meme
//   - GET /jobs/{id}
func (h *ArtifactHandler) RegisterRoutes(rt *Router) {
	rt.HandleFunc("POST /generate-pdf", h.GeneratePDF)
	rt.HandleFunc("POST /meme", h.Meme)
	rt.HandleFunc("GET /jobs/{id}", h.Job)
}

type artifactRequest struct {
	PredictionID string `json:"prediction_id" validate:"required,max=64"`
}

type jobAccepted struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

type memeResponse struct {
	PredictionID string `json:"prediction_id"`
	Meme         string `json:"meme"`
}

func (h *ArtifactHandler) decode(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	var req artifactRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return "", false
	}
	if err := validateStruct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return "", false
	}
	return req.PredictionID, true
}

// GeneratePDF handles POST /generate-pdf.
func (h *ArtifactHandler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decode(w, r, "handler.generate_pdf")
	if !ok {
		return
	}

	job, err := h.artifacts.RequestReport(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobAccepted{JobID: job.ID.String(), Status: domain.JobStatusPending})
}

// Meme handles POST /meme. With ?sync=true the SVG is rendered inline and
// returned as a data URI instead of being queued.
func (h *ArtifactHandler) Meme(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decode(w, r, "handler.meme")
	if !ok {
		return
	}

	if sync, _ := strconv.ParseBool(r.URL.Query().Get("sync")); sync {
		uri, err := h.artifacts.MemeDataURI(r.Context(), id)
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, memeResponse{PredictionID: id, Meme: uri})
		return
	}

	job, err := h.artifacts.RequestMeme(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobAccepted{JobID: job.ID.String(), Status: domain.JobStatusPending})
}

// Job handles GET /jobs/{id}.
func (h *ArtifactHandler) Job(w http.ResponseWriter, r *http.Request) {
	view, err := h.artifacts.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
