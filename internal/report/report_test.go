package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.ReportData {
	return &domain.ReportData{
		ReportID:     "3f2a9c1e-0000-4000-8000-000000000000",
		PredictionID: "pred_1700000000000_abc123",
		Name:         "Asha",
		BirthDetails: &domain.BirthDetails{DOB: "1990-05-15", Time: "10:30", Place: "Pune"},
		Summary:      "A year of steady career growth and new friendships.",
		Insights: map[string]string{
			"career": "Promotion likely in spring.",
			"health": "Keep a regular sleep schedule.",
		},
		Nakshatra:       &domain.Nakshatra{Name: "Rohini", Ruler: "Moon", LuckyGem: "Pearl"},
		LifePathSummary: "Natural leader with creative energy.",
		GeneratedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPDFGenerator_Generate(t *testing.T) {
	tests := []struct {
		name string
		data *domain.ReportData
	}{
		{name: "full report", data: sampleReport()},
		{name: "no birth details or premium", data: &domain.ReportData{
			ReportID: "r1", Name: "Ravi", Summary: "Calm months ahead.", Insights: map[string]string{},
		}},
		{name: "non-latin text", data: &domain.ReportData{
			ReportID: "r2", Name: "Zoë", Summary: "Good fortune — ✨ stars align.",
		}},
	}

	g := NewPDFGenerator()
	assert.Equal(t, domain.ArtifactFormatPDF, g.Format())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := g.Generate(context.Background(), tt.data, &buf)
			require.NoError(t, err)
			assert.Equal(t, int64(buf.Len()), n)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
		})
	}
}

func TestPDFGenerator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFGenerator().Generate(ctx, sampleReport(), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemeGenerator_Generate(t *testing.T) {
	g := NewMemeGenerator()
	assert.Equal(t, domain.ArtifactFormatSVG, g.Format())

	var buf bytes.Buffer
	_, err := g.Generate(context.Background(), sampleReport(), &buf)
	require.NoError(t, err)

	svg := buf.String()
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "For Asha")
	assert.Contains(t, svg, `width="800"`)
}

func TestOrderedInsights(t *testing.T) {
	got := orderedInsights(map[string]string{
		"wealth": "w",
		"zodiac": "z",
		"career": "c",
		"empty":  "",
		"bonus":  "b",
		"health": "h",
		"travel": "",
	})
	assert.Equal(t, []string{"career", "health", "wealth", "bonus", "zodiac"}, got)
}

func TestHelpers(t *testing.T) {
	r, g, b := HexToRGB("#F4A300")
	assert.Equal(t, []int{244, 163, 0}, []int{r, g, b})

	assert.Equal(t, "Career", CategoryTitle("career"))
	assert.Equal(t, "3f2a9c1e", ShortID("3f2a9c1e-0000"))
	assert.Equal(t, "abc", ShortID("abc"))
}
