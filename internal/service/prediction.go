// Package service contains the business logic layer.
//
// This file implements prediction orchestration: quota consumption, the
// language model call, post-processing and best-effort persistence.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/ai"
	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/metrics"
	"github.com/DukeRupert/jyotai/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultAITimeout bounds a single prediction call to the language model.
const DefaultAITimeout = 30 * time.Second

// TimestampLayout is RFC 3339 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// =============================================================================
// Interface Definition
// =============================================================================

// PredictionService generates and retrieves predictions.
type PredictionService interface {
	// Predict runs one prediction request end to end.
	// Returns domain.EINVALID for missing fields, domain.EQUOTA when the
	// caller's quota is exhausted and domain.EUPSTREAM or domain.ETIMEOUT
	// when the language model fails.
	Predict(ctx context.Context, req PredictRequest) (*domain.PredictionResult, error)

	// Get returns a stored prediction.
	// Returns domain.ENOTFOUND if it does not exist.
	Get(ctx context.Context, id string) (*domain.Prediction, error)

	// History lists a user's predictions, newest first.
	History(ctx context.Context, email string, limit int) ([]domain.Prediction, error)
}

// PredictRequest is the input of Predict.
type PredictRequest struct {
	Type         string
	Data         string
	Name         string
	BirthDetails *domain.BirthDetails
	Email        string
	Plan         string
}

// PredictionConfig tunes PredictionService.
type PredictionConfig struct {
	AITimeout time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

type predictionService struct {
	entitlements EntitlementService
	store        repository.Predictions
	provider     ai.Provider
	uploads      *UploadService
	config       PredictionConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewPredictionService creates a new PredictionService. uploads may be nil,
// in which case face and palm images are not stored.
func NewPredictionService(
	entitlements EntitlementService,
	store repository.Predictions,
	provider ai.Provider,
	uploads *UploadService,
	config PredictionConfig,
	logger *slog.Logger,
) PredictionService {
	if config.AITimeout <= 0 {
		config.AITimeout = DefaultAITimeout
	}
	return &predictionService{
		entitlements: entitlements,
		store:        store,
		provider:     provider,
		uploads:      uploads,
		config:       config,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// Predict
// =============================================================================

func (s *predictionService) Predict(ctx context.Context, req PredictRequest) (*domain.PredictionResult, error) {
	const op = "prediction.predict"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	typ, err := validatePredictRequest(op, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("prediction.type", typ.Label()))

	// Gate on the stored plan when we know who is asking.
	plan, _ := domain.ParsePlan(req.Plan)
	var remaining *int
	email := domain.NormalizeEmail(req.Email)
	if email != "" {
		record, left, err := s.entitlements.ConsumeOne(ctx, email)
		if err != nil {
			s.countPrediction(typ, plan, err)
			return nil, err
		}
		plan = record.Plan
		remaining = &left
	} else if !plan.IsValid() {
		plan = domain.PlanStandard
	}
	span.SetAttributes(attribute.String("user.plan", plan.String()))

	prompt := buildPredictionPrompt(req.Name, typ, req.Data, req.BirthDetails)

	callCtx, cancel := context.WithTimeout(ctx, s.config.AITimeout)
	completion, err := s.provider.Complete(callCtx, ai.CompletionParams{
		Prompt:      prompt,
		Temperature: ai.Temperature(ai.DefaultTemperature),
		Purpose:     ai.PurposePrediction,
	})
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.logger.Error("Prediction completion failed",
			"type", typ,
			"provider", s.provider.Name(),
			"error", err,
		)
		perr := upstreamError(err, op)
		s.countPrediction(typ, plan, perr)
		return nil, perr
	}

	now := s.now()
	result := &domain.PredictionResult{
		PredictionData: parsePredictionText(completion.Text),
		PredictionMeta: domain.PredictionMeta{
			TipOfTheDay:    astro.TipOfTheDay(now),
			PredictionID:   newPredictionID(now),
			Timestamp:      now.Format(TimestampLayout),
			Plan:           plan,
			QuotaRemaining: remaining,
		},
	}
	if plan == domain.PlanPremium && req.BirthDetails != nil {
		result.PremiumFeatures = premiumFeatures(req.BirthDetails)
	}

	s.persist(ctx, req, typ, email, result, now)
	s.countPrediction(typ, plan, nil)

	s.logger.Info("Prediction generated",
		"prediction_id", result.PredictionID,
		"type", typ,
		"plan", plan,
		"cached", completion.Cached,
	)
	return result, nil
}

func validatePredictRequest(op string, req PredictRequest) (domain.PredictionType, error) {
	if strings.TrimSpace(req.Type) == "" || strings.TrimSpace(req.Data) == "" || strings.TrimSpace(req.Name) == "" {
		return "", &domain.ValidationError{Op: op, Summary: "Missing required fields."}
	}
	return domain.PredictionType(req.Type), nil
}

// upstreamError maps a provider failure to the error returned to callers.
func upstreamError(err error, op string) error {
	if ai.IsTimeout(err) {
		return domain.UpstreamTimeout(err, op, "Failed to generate prediction.")
	}
	return domain.Upstream(err, op, "Failed to generate prediction.")
}

// premiumFeatures derives numerology and nakshatra data from birth details.
func premiumFeatures(birth *domain.BirthDetails) *domain.PremiumFeatures {
	lifePath := astro.LifePath(birth.DOB)
	nakshatra, _ := astro.NakshatraFor(birth.DOB)

	return &domain.PremiumFeatures{
		LifePathNumber:  lifePath,
		LifePathSummary: astro.LifePathSummary(lifePath),
		Nakshatra:       nakshatra.Name,
		NakshatraRuler:  nakshatra.Ruler,
		LuckyGem:        nakshatra.LuckyGem,
		MuhuratTimes:    astro.Muhurat(),
	}
}

// persist stores the prediction and any uploaded image. Failures are logged
// and never surface to the caller.
func (s *predictionService) persist(ctx context.Context, req PredictRequest, typ domain.PredictionType, email string, result *domain.PredictionResult, now time.Time) {
	extra := map[string]any{
		"tip_of_the_day": result.TipOfTheDay,
		"timestamp":      result.Timestamp,
	}
	if result.PremiumFeatures != nil {
		extra["premium_features"] = result.PremiumFeatures
	}

	if typ.IsImage() && s.uploads != nil {
		upload, err := s.uploads.StoreImage(ctx, result.PredictionID, req.Data)
		if err != nil {
			s.logger.Warn("Prediction image not stored", "prediction_id", result.PredictionID, "error", err)
		} else {
			extra["upload"] = upload
		}
	}

	additional, err := json.Marshal(extra)
	if err != nil {
		s.logger.Error("Failed to encode prediction extras", "prediction_id", result.PredictionID, "error", err)
		additional = nil
	}

	pred := &domain.Prediction{
		ID:             result.PredictionID,
		UserEmail:      email,
		Name:           req.Name,
		Type:           typ,
		BirthDetails:   req.BirthDetails,
		PredictionData: result.PredictionData,
		AdditionalData: additional,
		Plan:           result.Plan,
		CreatedAt:      now,
	}
	if err := s.store.CreatePrediction(ctx, pred); err != nil {
		s.logger.Error("Failed to persist prediction", "prediction_id", pred.ID, "error", err)
	}
}

func (s *predictionService) countPrediction(typ domain.PredictionType, plan domain.Plan, err error) {
	status := "success"
	if err != nil {
		status = domain.ErrorCode(err)
	}
	metrics.PredictionsTotal.WithLabelValues(typ.Label(), plan.String(), status).Inc()
}

const predictionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newPredictionID returns pred_<unix ms>_<6 base36 chars>.
func newPredictionID(now time.Time) string {
	var suffix [6]byte
	for i := range suffix {
		suffix[i] = predictionIDAlphabet[rand.IntN(len(predictionIDAlphabet))]
	}
	return "pred_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix[:])
}

// =============================================================================
// Get / History
// =============================================================================

func (s *predictionService) Get(ctx context.Context, id string) (*domain.Prediction, error) {
	const op = "prediction.get"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError(op, "prediction_id", "prediction_id is required.")
	}

	pred, err := s.store.GetPrediction(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFound(op, "prediction", id)
	}
	if err != nil {
		s.logger.Error("Failed to load prediction", "prediction_id", id, "error", err)
		return nil, domain.StorageUnavailable(err, op)
	}
	return pred, nil
}

func (s *predictionService) History(ctx context.Context, email string, limit int) ([]domain.Prediction, error) {
	const op = "prediction.history"

	email = domain.NormalizeEmail(email)
	if err := validateEmail(op, email); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	preds, err := s.store.ListPredictions(ctx, domain.PredictionFilter{UserEmail: email, Limit: limit})
	if err != nil {
		s.logger.Error("Failed to list predictions", "email", email, "error", err)
		return nil, domain.StorageUnavailable(err, op)
	}
	return preds, nil
}
