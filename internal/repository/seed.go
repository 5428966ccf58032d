package repository

import (
	"encoding/json"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
)

// FeaturedSeed returns the anonymized success stories shipped with the
// service. The Postgres store receives the same rows from a migration.
func FeaturedSeed() []domain.Prediction {
	stories := []struct {
		id, name, typ, at, summary string
		highlights                 []string
	}{
		{"featured_001", "A***", "kundli", "2024-01-15T10:30:00Z",
			"A prosperous period awaits you with significant career advancement. Jupiter's favorable position indicates success in new ventures and financial growth...",
			[]string{"Career Growth", "Financial Success", "New Opportunities"}},
		{"featured_002", "R***", "palm", "2024-01-14T14:20:00Z",
			"Your palm lines reveal strong intuition and creative abilities. The heart line shows deep emotional connections and lasting relationships...",
			[]string{"Creative Talents", "Strong Relationships", "Intuitive Powers"}},
		{"featured_003", "M***", "face", "2024-01-13T09:15:00Z",
			"Facial features indicate natural leadership qualities. Your strong jawline suggests determination and ability to overcome challenges...",
			[]string{"Leadership Skills", "Determination", "Success in Business"}},
		{"featured_004", "S***", "kundli", "2024-01-12T16:45:00Z",
			"The stars align perfectly for marriage and family expansion. Venus in your seventh house brings harmony and romantic fulfillment...",
			[]string{"Marriage Prospects", "Family Harmony", "Romantic Success"}},
		{"featured_005", "D***", "kundli", "2024-01-11T11:30:00Z",
			"Your life path number reveals exceptional healing abilities. The combination of your birth date suggests a calling in healthcare or spiritual guidance...",
			[]string{"Healing Abilities", "Spiritual Growth", "Healthcare Career"}},
	}

	out := make([]domain.Prediction, 0, len(stories))
	for _, s := range stories {
		created, _ := time.Parse(time.RFC3339, s.at)
		out = append(out, domain.Prediction{
			ID:   s.id,
			Name: s.name,
			Type: domain.PredictionType(s.typ),
			PredictionData: domain.PredictionData{
				Summary:  s.summary,
				Insights: json.RawMessage("{}"),
			},
			Highlights: s.highlights,
			Plan:       domain.PlanStandard,
			IsFeatured: true,
			CreatedAt:  created,
		})
	}
	return out
}
