// Package jobs contains the background job handlers that render prediction
// artifacts and upload them to object storage.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/metrics"
	"github.com/DukeRupert/jyotai/internal/report"
	"github.com/DukeRupert/jyotai/internal/service"
	"github.com/DukeRupert/jyotai/internal/storage"
	"github.com/DukeRupert/jyotai/internal/worker"
	"github.com/google/uuid"
)

// URLExpiry is how long presigned artifact URLs stay valid. Backends with a
// public URL ignore it.
const URLExpiry = 24 * time.Hour

// artifactHandler renders one artifact format for a prediction and stores it.
type artifactHandler struct {
	jobType     string
	predictions service.PredictionService
	storage     storage.Storage
	generator   report.Generator
	keyFor      func(predictionID string) string
	logger      *slog.Logger
}

// NewGenerateReportHandler creates the handler for generate_report jobs.
func NewGenerateReportHandler(
	predictions service.PredictionService,
	store storage.Storage,
	logger *slog.Logger,
) worker.JobHandler {
	return &artifactHandler{
		jobType:     worker.JobTypeGenerateReport,
		predictions: predictions,
		storage:     store,
		generator:   report.NewPDFGenerator(),
		keyFor:      storage.ReportKey,
		logger:      logger,
	}
}

// Type returns the job type identifier.
func (h *artifactHandler) Type() string {
	return h.jobType
}

// Handle renders the artifact and returns a domain.JobResult as JSON.
func (h *artifactHandler) Handle(ctx context.Context, payload []byte) (json.RawMessage, error) {
	var p worker.ArtifactPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}
	if p.PredictionID == "" {
		return nil, worker.NewPermanentError(fmt.Errorf("payload missing prediction_id"))
	}

	pred, err := h.predictions.Get(ctx, p.PredictionID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, worker.NewPermanentError(err)
		}
		return nil, fmt.Errorf("load prediction: %w", err)
	}

	format := h.generator.Format()
	data := service.BuildReportData(pred, uuid.NewString(), time.Now().UTC())

	h.logger.Info("Rendering artifact",
		"prediction_id", pred.ID,
		"report_id", data.ReportID,
		"format", format,
	)

	var buf bytes.Buffer
	if _, err := h.generator.Generate(ctx, data, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	key := h.keyFor(pred.ID)
	size, err := storage.PutBytes(ctx, h.storage, key, buf.Bytes(), format.ContentType())
	if err != nil {
		if storage.IsPermanent(err) {
			return nil, worker.NewPermanentError(fmt.Errorf("upload %s: %w", format, err))
		}
		return nil, fmt.Errorf("upload %s: %w", format, err)
	}

	url, err := h.storage.URL(ctx, key, URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("artifact url: %w", err)
	}

	metrics.ArtifactsGenerated.WithLabelValues(format.String()).Inc()
	h.logger.Info("Artifact stored",
		"prediction_id", pred.ID,
		"storage_key", key,
		"size", size,
	)

	return json.Marshal(domain.JobResult{
		StorageKey:  key,
		URL:         url,
		ContentType: format.ContentType(),
		Size:        size,
	})
}
