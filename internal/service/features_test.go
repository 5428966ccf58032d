package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/jyotai/internal/ai"
	aimock "github.com/DukeRupert/jyotai/internal/ai/mock"
	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/repository"
	"github.com/DukeRupert/jyotai/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Gallery
// =============================================================================

func TestGallery_Featured(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()

	long := strings.Repeat("a", 200)
	for i, p := range []*domain.Prediction{
		{ID: "p1", Name: "Asha", Type: domain.PredictionTypeKundli, IsFeatured: true,
			PredictionData: domain.PredictionData{Summary: long, Insights: json.RawMessage(`{"wealth":"w","career":"c"}`)}},
		{ID: "p2", Name: "Ravi", Type: domain.PredictionTypePalm, IsFeatured: true, Highlights: []string{"New job"},
			PredictionData: domain.PredictionData{Summary: "Short."}},
		{ID: "p3", Name: "Hidden", Type: domain.PredictionTypeFace,
			PredictionData: domain.PredictionData{Summary: "Not featured."}},
	} {
		// A day after the seeded stories so these sort first.
		p.CreatedAt = jan15.Add(24*time.Hour + time.Duration(i)*time.Hour)
		require.NoError(t, store.CreatePrediction(ctx, p))
	}

	svc := NewGalleryService(store, testLogger())
	g, err := svc.Featured(ctx, 0)
	require.NoError(t, err)

	featured := 2 + len(repository.FeaturedSeed())
	require.Len(t, g.Entries, featured)
	assert.Equal(t, featured, g.TotalFeatured)
	assert.Equal(t, GalleryMessage, g.Message)

	// Newest first.
	ravi, asha := g.Entries[0], g.Entries[1]
	assert.Equal(t, "Short....", ravi.Summary)
	assert.Equal(t, []string{"New job"}, ravi.Insights)
	assert.Equal(t, `"Ravi found success with JyotAI predictions"`, ravi.Testimonial)

	assert.Equal(t, strings.Repeat("a", 150)+"...", asha.Summary)
	assert.Equal(t, []string{"Career", "Wealth"}, asha.Insights)
	assert.Equal(t, "kundli", asha.Type)

	g, err = svc.Featured(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, g.Entries, 1)
	assert.Equal(t, featured, g.TotalFeatured)
}

// =============================================================================
// Astro
// =============================================================================

func TestAstro_Chart(t *testing.T) {
	svc := NewAstroService(&astro.ChartGenerator{Jitter: func() float64 { return 0 }}, testLogger())
	birth := json.RawMessage(`{"dob":"1990-05-15"}`)

	tests := []struct {
		name     string
		req      ChartRequest
		wantCode string
	}{
		{"premium with details", ChartRequest{UserPlan: "premium", BirthDetails: birth}, ""},
		{"standard is gated", ChartRequest{UserPlan: "standard", BirthDetails: birth}, domain.EFORBIDDEN},
		{"plan check runs first", ChartRequest{UserPlan: ""}, domain.EFORBIDDEN},
		{"premium without details", ChartRequest{UserPlan: "premium"}, domain.EINVALID},
		{"premium with null details", ChartRequest{UserPlan: "premium", BirthDetails: json.RawMessage("null")}, domain.EINVALID},
		{"premium with empty string details", ChartRequest{UserPlan: "premium", BirthDetails: json.RawMessage(`""`)}, domain.EINVALID},
		{"upper case plan is gated", ChartRequest{UserPlan: "PREMIUM", BirthDetails: birth}, domain.EFORBIDDEN},
		{"padded plan is gated", ChartRequest{UserPlan: " premium ", BirthDetails: birth}, domain.EFORBIDDEN},
		{"string details are echoed", ChartRequest{UserPlan: "premium", BirthDetails: json.RawMessage(`"1990-05-15"`)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Chart(context.Background(), tt.req)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, res.Chart.PlanetaryPositions, len(astro.Planets))
			assert.Equal(t, tt.req.BirthDetails, res.BirthDetails)
			assert.NotEmpty(t, res.GeneratedAt)
		})
	}
}

func TestAstro_TipFor(t *testing.T) {
	svc := NewAstroService(nil, testLogger())
	tip := svc.TipFor(jan15)
	assert.Equal(t, "2024-01-15", tip.Date)
	assert.Equal(t, astro.TipSource, tip.Source)
	assert.Equal(t, astro.TipOfTheDay(jan15), tip.Tip)
}

func TestAstro_LifePath(t *testing.T) {
	svc := NewAstroService(nil, testLogger())

	res, err := svc.LifePath("1990-05-15")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Number)
	assert.Equal(t, astro.LifePathSummary(3), res.Summary)

	_, err = svc.LifePath("")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	_, err = svc.LifePath("unknown")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

// =============================================================================
// Chat
// =============================================================================

func TestChat_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("uses chat purpose", func(t *testing.T) {
		p := aimock.New(testLogger())
		reply, err := NewChatService(p, time.Second, testLogger()).Ask(ctx, "Will I travel?")
		require.NoError(t, err)
		assert.Equal(t, aimock.DefaultReply, reply)
		assert.Equal(t, ai.PurposeChat, p.LastParams.Purpose)
	})

	t.Run("empty reply", func(t *testing.T) {
		p := aimock.New(testLogger())
		p.Response = "   "
		reply, err := NewChatService(p, time.Second, testLogger()).Ask(ctx, "hi")
		require.NoError(t, err)
		assert.Equal(t, NoReply, reply)
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := NewChatService(aimock.New(testLogger()), time.Second, testLogger()).Ask(ctx, " ")
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.Equal(t, "Message is required in request body", domain.ErrorMessage(err))
	})

	t.Run("provider failure hides detail", func(t *testing.T) {
		p := aimock.New(testLogger())
		p.Error = ai.EAIRateLimit
		_, err := NewChatService(p, time.Second, testLogger()).Ask(ctx, "hi")
		assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
		assert.Equal(t, "Internal Server Error", domain.ErrorMessage(err))
	})
}

// =============================================================================
// Artifacts
// =============================================================================

func TestArtifact_RequestAndStatus(t *testing.T) {
	ctx := context.Background()
	f := newPredictionFixture(t, nil)

	res, err := f.svc.Predict(ctx, PredictRequest{Type: "kundli", Data: "x", Name: "Asha"})
	require.NoError(t, err)

	svc := NewArtifactService(f.store, f.svc, testLogger())

	job, err := svc.RequestReport(ctx, res.PredictionID)
	require.NoError(t, err)
	assert.Equal(t, worker.JobTypeGenerateReport, job.JobType)

	var payload worker.ArtifactPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, res.PredictionID, payload.PredictionID)

	view, err := svc.Job(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, view.Status)
	assert.Nil(t, view.Result)

	require.NoError(t, f.store.CompleteJob(ctx, job.ID, json.RawMessage(`{"url":"/files/r.pdf","content_type":"application/pdf"}`)))
	view, err = svc.Job(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, view.Status)
	require.NotNil(t, view.Result)
	assert.Equal(t, "/files/r.pdf", view.Result.URL)

	meme, err := svc.RequestMeme(ctx, res.PredictionID)
	require.NoError(t, err)
	assert.Equal(t, worker.JobTypeGenerateMeme, meme.JobType)
}

func TestArtifact_Errors(t *testing.T) {
	ctx := context.Background()
	f := newPredictionFixture(t, nil)
	svc := NewArtifactService(f.store, f.svc, testLogger())

	_, err := svc.RequestReport(ctx, "pred_0_none")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	_, err = svc.Job(ctx, "not-a-uuid")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	_, err = svc.Job(ctx, "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestArtifact_MemeDataURI(t *testing.T) {
	ctx := context.Background()
	f := newPredictionFixture(t, nil)
	res, err := f.svc.Predict(ctx, PredictRequest{Type: "kundli", Data: "x", Name: "Asha"})
	require.NoError(t, err)

	uri, err := NewArtifactService(f.store, f.svc, testLogger()).MemeDataURI(ctx, res.PredictionID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/svg+xml;base64,"))
}

func TestBuildReportData(t *testing.T) {
	extra, _ := json.Marshal(map[string]any{
		"premium_features": domain.PremiumFeatures{
			Nakshatra: "Rohini", NakshatraRuler: "Moon", LuckyGem: "Pearl", LifePathSummary: "Leader",
		},
	})
	pred := &domain.Prediction{
		ID:             "pred_1",
		Name:           "Asha",
		PredictionData: domain.PredictionData{Summary: "s", Insights: json.RawMessage(`{"career":"c"}`)},
		AdditionalData: extra,
	}

	data := BuildReportData(pred, "report-1", jan15)
	assert.Equal(t, "report-1", data.ReportID)
	assert.Equal(t, map[string]string{"career": "c"}, data.Insights)
	require.NotNil(t, data.Nakshatra)
	assert.Equal(t, "Moon", data.Nakshatra.Ruler)
	assert.Equal(t, "Leader", data.LifePathSummary)
	assert.True(t, data.HasPremiumInsights())

	plain := BuildReportData(&domain.Prediction{ID: "pred_2"}, "report-2", jan15)
	assert.False(t, plain.HasPremiumInsights())
}
