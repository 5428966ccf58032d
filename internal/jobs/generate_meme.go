package jobs

import (
	"log/slog"

	"github.com/DukeRupert/jyotai/internal/report"
	"github.com/DukeRupert/jyotai/internal/service"
	"github.com/DukeRupert/jyotai/internal/storage"
	"github.com/DukeRupert/jyotai/internal/worker"
)

// NewGenerateMemeHandler creates the handler for generate_meme jobs.
func NewGenerateMemeHandler(
	predictions service.PredictionService,
	store storage.Storage,
	logger *slog.Logger,
) worker.JobHandler {
	return &artifactHandler{
		jobType:     worker.JobTypeGenerateMeme,
		predictions: predictions,
		storage:     store,
		generator:   report.NewMemeGenerator(),
		keyFor:      storage.MemeKey,
		logger:      logger,
	}
}
