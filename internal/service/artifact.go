package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/repository"
	"github.com/DukeRupert/jyotai/internal/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// JobView is the public status of an artifact job.
type JobView struct {
	ID          string            `json:"job_id"`
	Type        string            `json:"type"`
	Status      domain.JobStatus  `json:"status"`
	Attempts    int32             `json:"attempts"`
	MaxAttempts int32             `json:"max_attempts"`
	Error       string            `json:"error,omitempty"`
	Result      *domain.JobResult `json:"result,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// ArtifactService queues report and meme rendering and reports job status.
type ArtifactService struct {
	jobs        repository.Jobs
	predictions PredictionService
	logger      *slog.Logger
}

// NewArtifactService creates a new ArtifactService.
func NewArtifactService(jobs repository.Jobs, predictions PredictionService, logger *slog.Logger) *ArtifactService {
	return &ArtifactService{jobs: jobs, predictions: predictions, logger: logger}
}

// RequestReport queues a PDF report for a stored prediction.
// Returns domain.ENOTFOUND if the prediction does not exist.
func (s *ArtifactService) RequestReport(ctx context.Context, predictionID string) (*domain.Job, error) {
	return s.enqueue(ctx, "artifact.request_report", worker.JobTypeGenerateReport, predictionID)
}

// RequestMeme queues a shareable meme for a stored prediction.
func (s *ArtifactService) RequestMeme(ctx context.Context, predictionID string) (*domain.Job, error) {
	return s.enqueue(ctx, "artifact.request_meme", worker.JobTypeGenerateMeme, predictionID)
}

func (s *ArtifactService) enqueue(ctx context.Context, op, jobType, predictionID string) (*domain.Job, error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	pred, err := s.predictions.Get(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("prediction.id", pred.ID))

	job, err := worker.EnqueueJob(ctx, s.jobs, jobType, worker.ArtifactPayload{PredictionID: pred.ID})
	if err != nil {
		s.logger.Error("Failed to enqueue artifact job", "job_type", jobType, "prediction_id", pred.ID, "error", err)
		return nil, domain.StorageUnavailable(err, op)
	}

	s.logger.Info("Artifact job queued", "job_id", job.ID, "job_type", jobType, "prediction_id", pred.ID)
	return job, nil
}

// MemeDataURI renders the meme for a stored prediction without queueing.
func (s *ArtifactService) MemeDataURI(ctx context.Context, predictionID string) (string, error) {
	pred, err := s.predictions.Get(ctx, predictionID)
	if err != nil {
		return "", err
	}
	summary := pred.PredictionData.Summary
	svg := astro.MemeSVG(pred.Name, summary, astro.DominantTheme(summary))
	return astro.DataURI(svg), nil
}

// Job returns the status of a queued job.
// Returns domain.ENOTFOUND for unknown or malformed IDs.
func (s *ArtifactService) Job(ctx context.Context, id string) (*JobView, error) {
	const op = "artifact.job"

	jobID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.NotFound(op, "job", id)
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFound(op, "job", id)
	}
	if err != nil {
		s.logger.Error("Failed to load job", "job_id", id, "error", err)
		return nil, domain.StorageUnavailable(err, op)
	}

	view := &JobView{
		ID:          job.ID.String(),
		Type:        job.JobType,
		Status:      job.Status,
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		Error:       job.ErrorMessage,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Status == domain.JobStatusCompleted && len(job.Result) > 0 {
		var result domain.JobResult
		if err := json.Unmarshal(job.Result, &result); err == nil {
			view.Result = &result
		}
	}
	return view, nil
}

// BuildReportData assembles everything the renderers need from a stored
// prediction. Premium sections are filled only when the prediction carried
// premium features.
func BuildReportData(pred *domain.Prediction, reportID string, now time.Time) *domain.ReportData {
	data := &domain.ReportData{
		ReportID:     reportID,
		PredictionID: pred.ID,
		Name:         pred.Name,
		BirthDetails: pred.BirthDetails,
		Summary:      pred.PredictionData.Summary,
		Insights:     pred.PredictionData.InsightMap(),
		GeneratedAt:  now,
	}
	if pf := pred.PremiumFeatures(); pf != nil {
		if pf.Nakshatra != "" {
			data.Nakshatra = &domain.Nakshatra{
				Name:     pf.Nakshatra,
				Ruler:    pf.NakshatraRuler,
				LuckyGem: pf.LuckyGem,
			}
		}
		data.LifePathSummary = pf.LifePathSummary
	}
	return data
}
