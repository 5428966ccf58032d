package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/jyotai/internal/service"
)

// Version is reported by the documentation endpoint.
const Version = "1.0.0"

// DocsHandler serves the API overview at the root path.
type DocsHandler struct {
	astro  *service.AstroService
	logger *slog.Logger
	now    func() time.Time
}

// NewDocsHandler creates a new DocsHandler.
func NewDocsHandler(astro *service.AstroService, logger *slog.Logger) *DocsHandler {
	return &DocsHandler{
		astro:  astro,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers GET /.
func (h *DocsHandler) RegisterRoutes(rt *Router) {
	rt.HandleFunc("GET /{$}", h.Index)
}

type planFeatures struct {
	Price    string   `json:"price"`
	Features []string `json:"features"`
}

type usageExample struct {
	Endpoint string         `json:"endpoint"`
	Payload  map[string]any `json:"payload"`
}

type apiDocs struct {
	Service        string                       `json:"service"`
	Version        string                       `json:"version"`
	Description    string                       `json:"description"`
	Status         string                       `json:"status"`
	TipOfTheDay    string                       `json:"tip_of_the_day"`
	Timestamp      string                       `json:"timestamp"`
	Endpoints      map[string]map[string]string `json:"endpoints"`
	FeatureMatrix  map[string]planFeatures      `json:"feature_matrix"`
	UsageExamples  map[string]usageExample      `json:"usage_examples"`
	ResponseFormat map[string]map[string]string `json:"response_format"`
}

var endpointDocs = map[string]map[string]string{
	"core": {
		"GET /api/tip-of-the-day":       "Get daily spiritual guidance",
		"POST /api/predict":             "Enhanced prediction with plan-based features",
		"POST /api/astro-chart":         "Generate birth chart (Premium only)",
		"GET /api/gallery":              "Featured predictions gallery (anonymized)",
		"GET /api/lifepath":             "Life path number for a date of birth",
		"GET /api/user/{email}":         "Plan and quota for a user",
		"GET /api/user/{email}/history": "A user's past predictions",
		"POST /api/user/updatePlan":     "Change a user's plan",
		"POST /api/referral":            "Credit a referral code",
		"POST /api/billing/checkout":    "Start a premium checkout",
		"POST /api/webhooks/stripe":     "Stripe payment events",
	},
	"content": {
		"POST /api/generate-pdf": "Generate downloadable PDF report",
		"POST /api/meme":         "Generate a shareable meme (?sync=true for inline)",
		"GET /api/jobs/{id}":     "Status of a report or meme job",
		"POST /api/ask-gpt":      "Basic GPT interaction (legacy)",
	},
}

var featureMatrix = map[string]planFeatures{
	"standard_plan": {
		Price: "₹499 (One-time)",
		Features: []string{
			"Prediction Results",
			"Tip of the Day",
			"Ask Another Question (3 max)",
			"History Page",
			"Shareable Memes",
			"Download PDF",
			"Referral System",
			"Featured Gallery",
		},
	},
	"premium_plan": {
		Price: "₹999/month",
		Features: []string{
			"All Standard features",
			"Astro Map View (SVG Charts)",
			"Lucky Gem & Nakshatra insights",
			"Muhurat Times",
			"Life Path Summary",
			"Ask Another Question (20/month)",
			"WhatsApp PDF sharing (planned)",
		},
	},
}

var exampleBirthDetails = map[string]any{
	"dob":   "1990-01-01",
	"time":  "10:30",
	"place": "City, Country",
}

var usageExamples = map[string]usageExample{
	"prediction": {
		Endpoint: "POST /api/predict",
		Payload: map[string]any{
			"type":          "kundli|face|palm",
			"data":          "input_data",
			"name":          "User Name",
			"birth_details": exampleBirthDetails,
			"plan":          "standard|premium",
		},
	},
	"astro_chart": {
		Endpoint: "POST /api/astro-chart",
		Payload: map[string]any{
			"birth_details": exampleBirthDetails,
			"user_plan":     "premium",
		},
	},
}

var responseFormat = map[string]map[string]string{
	"success": {
		"data":           "...",
		"tip_of_the_day": "Daily spiritual guidance",
		"timestamp":      "ISO 8601 timestamp",
	},
	"error": {
		"error": "Error message",
		"code":  "Machine-readable error code",
	},
}

// Index handles GET /.
func (h *DocsHandler) Index(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	writeJSON(w, http.StatusOK, apiDocs{
		Service:        "JyotAI Backend API",
		Version:        Version,
		Description:    "AI-powered astrology platform with comprehensive feature matrix",
		Status:         "🟢 Live",
		TipOfTheDay:    h.astro.TipFor(now).Tip,
		Timestamp:      now.Format(service.TimestampLayout),
		Endpoints:      endpointDocs,
		FeatureMatrix:  featureMatrix,
		UsageExamples:  usageExamples,
		ResponseFormat: responseFormat,
	})
}
