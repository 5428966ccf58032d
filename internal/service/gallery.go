package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/repository"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultGalleryLimit = 10
	maxGalleryLimit     = 20
	gallerySummaryLen   = 150

	// GalleryMessage accompanies every gallery listing.
	GalleryMessage = "These are anonymized success stories from our users"
)

// GalleryEntry is one anonymized featured prediction.
type GalleryEntry struct {
	Summary     string    `json:"summary"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	Insights    []string  `json:"insights"`
	Testimonial string    `json:"testimonial"`
}

// Gallery is the response of GalleryService.Featured.
type Gallery struct {
	Entries       []GalleryEntry `json:"gallery"`
	TotalFeatured int            `json:"total_featured"`
	Message       string         `json:"message"`
}

// GalleryService lists featured predictions.
type GalleryService struct {
	store  repository.Predictions
	logger *slog.Logger
}

// NewGalleryService creates a new GalleryService.
func NewGalleryService(store repository.Predictions, logger *slog.Logger) *GalleryService {
	return &GalleryService{
		store:  store,
		logger: logger,
	}
}

// Featured returns up to limit featured predictions, newest first.
// limit defaults to 10 and is capped at 20.
func (s *GalleryService) Featured(ctx context.Context, limit int) (*Gallery, error) {
	const op = "gallery.featured"

	switch {
	case limit <= 0:
		limit = defaultGalleryLimit
	case limit > maxGalleryLimit:
		limit = maxGalleryLimit
	}

	preds, err := s.store.ListPredictions(ctx, domain.PredictionFilter{FeaturedOnly: true, Limit: limit})
	if err != nil {
		s.logger.Error("Failed to list featured predictions", "error", err)
		return nil, domain.Internal(err, op, "Failed to fetch gallery")
	}

	total, err := s.store.CountFeatured(ctx)
	if err != nil {
		s.logger.Error("Failed to count featured predictions", "error", err)
		return nil, domain.Internal(err, op, "Failed to fetch gallery")
	}

	entries := make([]GalleryEntry, 0, len(preds))
	for i := range preds {
		entries = append(entries, s.entry(&preds[i]))
	}

	return &Gallery{
		Entries:       entries,
		TotalFeatured: total,
		Message:       GalleryMessage,
	}, nil
}

func (s *GalleryService) entry(p *domain.Prediction) GalleryEntry {
	insights := p.Highlights
	if len(insights) == 0 {
		insights = insightTitles(p)
	}
	return GalleryEntry{
		Summary:     astro.Truncate(p.PredictionData.Summary, gallerySummaryLen, true),
		Name:        p.Name,
		Type:        string(p.Type),
		CreatedAt:   p.CreatedAt,
		Insights:    insights,
		Testimonial: `"` + p.Name + ` found success with JyotAI predictions"`,
	}
}

// insightTitles lists the categories the prediction covers, in display order.
func insightTitles(p *domain.Prediction) []string {
	title := cases.Title(language.English)
	m := p.PredictionData.InsightMap()
	out := make([]string, 0, len(m))
	for _, key := range domain.InsightCategories {
		if _, ok := m[key]; ok {
			out = append(out, title.String(key))
		}
	}
	return out
}
