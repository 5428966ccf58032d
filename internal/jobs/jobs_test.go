package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/service"
	"github.com/DukeRupert/jyotai/internal/storage"
	"github.com/DukeRupert/jyotai/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictions struct {
	service.PredictionService
	preds map[string]*domain.Prediction
}

func (f *fakePredictions) Get(_ context.Context, id string) (*domain.Prediction, error) {
	if p, ok := f.preds[id]; ok {
		return p, nil
	}
	return nil, domain.NotFound("prediction.get", "prediction", id)
}

func setup(t *testing.T) (*fakePredictions, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	preds := &fakePredictions{preds: map[string]*domain.Prediction{
		"pred_1_abcdef": {
			ID:   "pred_1_abcdef",
			Name: "Asha",
			Type: domain.PredictionTypeKundli,
			PredictionData: domain.PredictionData{
				Summary:  "Your career will flourish this year.",
				Insights: json.RawMessage(`{"career":"Promotion ahead"}`),
			},
		},
	}}
	return preds, store
}

func payload(id string) []byte {
	b, _ := json.Marshal(worker.ArtifactPayload{PredictionID: id})
	return b
}

func TestArtifactHandlers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		newHandler  func(service.PredictionService, storage.Storage, *slog.Logger) worker.JobHandler
		jobType     string
		contentType string
		keyPart     string
	}{
		{"report", NewGenerateReportHandler, worker.JobTypeGenerateReport, "application/pdf", "/reports/"},
		{"meme", NewGenerateMemeHandler, worker.JobTypeGenerateMeme, "image/svg+xml", "/memes/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, store := setup(t)
			h := tt.newHandler(preds, store, logger)
			assert.Equal(t, tt.jobType, h.Type())

			raw, err := h.Handle(context.Background(), payload("pred_1_abcdef"))
			require.NoError(t, err)

			var result domain.JobResult
			require.NoError(t, json.Unmarshal(raw, &result))
			assert.Equal(t, tt.contentType, result.ContentType)
			assert.True(t, strings.HasPrefix(result.StorageKey, "predictions/pred_1_abcdef"+tt.keyPart))
			assert.Positive(t, result.Size)
			assert.Contains(t, result.URL, result.StorageKey)

			exists, err := store.Exists(context.Background(), result.StorageKey)
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}
}

func TestArtifactHandler_PermanentFailures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	preds, store := setup(t)
	h := NewGenerateReportHandler(preds, store, logger)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"malformed payload", []byte(`{`)},
		{"missing id", []byte(`{}`)},
		{"unknown prediction", payload("pred_9_zzzzzz")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.payload)
			require.Error(t, err)
			assert.True(t, worker.IsPermanent(err))
		})
	}
}
