package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/domain"
)

// UpgradeURL is where plan-gated responses point the caller.
const UpgradeURL = "/upgrade"

// ChartRequest is the input of AstroService.Chart.
type ChartRequest struct {
	BirthDetails json.RawMessage // echoed back as sent
	UserPlan     string
}

// ChartResult is a generated chart together with its inputs.
type ChartResult struct {
	Chart        astro.Chart     `json:"chart"`
	GeneratedAt  string          `json:"generated_at"`
	BirthDetails json.RawMessage `json:"birth_details"`
}

// Tip is the tip of the day for one calendar date.
type Tip struct {
	Tip    string `json:"tip"`
	Date   string `json:"date"`
	Source string `json:"source"`
}

// LifePathResult is the numerology reading for a date of birth.
type LifePathResult struct {
	DOB     string `json:"dob"`
	Number  int    `json:"life_path_number"`
	Summary string `json:"life_path_summary"`
}

// AstroService serves the chart, tip and numerology features.
type AstroService struct {
	charts *astro.ChartGenerator
	logger *slog.Logger
	now    func() time.Time
}

// NewAstroService creates a new AstroService.
func NewAstroService(charts *astro.ChartGenerator, logger *slog.Logger) *AstroService {
	if charts == nil {
		charts = astro.NewChartGenerator()
	}
	return &AstroService{
		charts: charts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Chart generates a birth chart. The plan check runs before input
// validation, so a standard caller without birth details sees EFORBIDDEN.
func (s *AstroService) Chart(ctx context.Context, req ChartRequest) (*ChartResult, error) {
	const op = "astro.chart"

	_, span := tracer.Start(ctx, op)
	defer span.End()

	// Exact match: no case folding or trimming on the gate.
	if req.UserPlan != string(domain.PlanPremium) {
		return nil, domain.Forbidden(op, "Upgrade to Premium to unlock Astro Chart")
	}
	if isFalsyJSON(req.BirthDetails) {
		return nil, domain.NewValidationError(op, "birth_details", "Birth details required")
	}

	return &ChartResult{
		Chart:        s.charts.Generate(),
		GeneratedAt:  s.now().Format(TimestampLayout),
		BirthDetails: req.BirthDetails,
	}, nil
}

// TipFor returns the tip for the calendar day of t.
func (s *AstroService) TipFor(t time.Time) Tip {
	return Tip{
		Tip:    astro.TipOfTheDay(t),
		Date:   t.Format(time.DateOnly),
		Source: astro.TipSource,
	}
}

// Today returns the tip for the current UTC date.
func (s *AstroService) Today() Tip {
	return s.TipFor(s.now())
}

// LifePath reduces dob to its life-path number and summary.
func (s *AstroService) LifePath(dob string) (*LifePathResult, error) {
	const op = "astro.life_path"

	dob = strings.TrimSpace(dob)
	if dob == "" {
		return nil, domain.NewValidationError(op, "dob", "Date of birth is required.")
	}
	n := astro.LifePath(dob)
	if n == 0 {
		return nil, domain.NewValidationError(op, "dob", "Date of birth must contain digits.")
	}
	return &LifePathResult{
		DOB:     dob,
		Number:  n,
		Summary: astro.LifePathSummary(n),
	}, nil
}

// falsyJSON are the literals treated as absent birth details.
var falsyJSON = [][]byte{[]byte("null"), []byte("false"), []byte("0"), []byte(`""`)}

// isFalsyJSON reports whether raw is missing or one of the falsy literals.
func isFalsyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	for _, f := range falsyJSON {
		if bytes.Equal(trimmed, f) {
			return true
		}
	}
	return false
}
