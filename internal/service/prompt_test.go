package service

import (
	"strings"
	"testing"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildPredictionPrompt(t *testing.T) {
	t.Run("kundli includes data and birth details", func(t *testing.T) {
		p := buildPredictionPrompt("Asha", domain.PredictionTypeKundli, "Lagna: Leo", &domain.BirthDetails{
			DOB: "1990-05-15", Time: "10:30", Place: "Pune",
		})
		assert.True(t, strings.HasPrefix(p, "You are JyotAI"))
		assert.Contains(t, p, "Name: Asha\nType: kundli\n")
		assert.Contains(t, p, "Kundli Input: Lagna: Leo\n")
		assert.Contains(t, p, "Date of Birth: 1990-05-15\nTime: 10:30\nPlace: Pune\n")
		assert.True(t, strings.HasSuffix(p, "}"))
	})

	t.Run("unknown type has no input line", func(t *testing.T) {
		p := buildPredictionPrompt("Mira", domain.PredictionType("tarot"), "The Star", nil)
		assert.Contains(t, p, "Name: Mira\nType: tarot\n")
		assert.NotContains(t, p, "The Star")
		assert.NotContains(t, p, "Kundli Input")
		assert.NotContains(t, p, imagePlaceholder)
	})

	t.Run("images are replaced by a placeholder", func(t *testing.T) {
		p := buildPredictionPrompt("Ravi", domain.PredictionTypePalm, "iVBORw0KGgoAAAANSUhEUg==", nil)
		assert.Contains(t, p, imagePlaceholder)
		assert.NotContains(t, p, "iVBORw0KGgo")
		assert.NotContains(t, p, "Birth Details")
	})
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}", `{"a":1}`},
		{"only first bare fence removed", "```{\"a\":1}```", "{\"a\":1}```"},
		{"no fence", "  {\"a\":1}  ", `{"a":1}`},
		{"prose", "The stars are kind.", "The stars are kind."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestParsePredictionText(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		d := parsePredictionText("```json\n{\"summary\":\"Bright days\",\"insights\":{\"career\":\"Rise\"}}\n```")
		assert.Equal(t, "Bright days", d.Summary)
		assert.Equal(t, map[string]string{"career": "Rise"}, d.InsightMap())
	})

	t.Run("invalid json falls back to raw summary", func(t *testing.T) {
		d := parsePredictionText("Your future shines.")
		assert.Equal(t, "Your future shines.", d.Summary)
		assert.JSONEq(t, `{}`, string(d.Insights))
	})

	t.Run("missing insights become empty object", func(t *testing.T) {
		d := parsePredictionText(`{"summary":"Only a summary"}`)
		assert.JSONEq(t, `{}`, string(d.Insights))
	})

	t.Run("extra keys are kept", func(t *testing.T) {
		d := parsePredictionText(`{"summary":"S","insights":{},"lucky_color":"saffron","remedies":["chant"]}`)
		assert.Equal(t, "S", d.Summary)
		assert.JSONEq(t, `"saffron"`, string(d.Extra["lucky_color"]))
		assert.JSONEq(t, `["chant"]`, string(d.Extra["remedies"]))
	})

	t.Run("non-string summary falls back to raw text", func(t *testing.T) {
		d := parsePredictionText(`{"summary":42}`)
		assert.Equal(t, `{"summary":42}`, d.Summary)
	})

	t.Run("json array falls back to raw text", func(t *testing.T) {
		d := parsePredictionText(`["a"]`)
		assert.Equal(t, `["a"]`, d.Summary)
	})
}
