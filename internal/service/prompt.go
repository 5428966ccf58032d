package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DukeRupert/jyotai/internal/domain"
)

const promptPreamble = `You are JyotAI, an intelligent and spiritual AI astrologer.
Given the following input, generate a personalized prediction including marriage, career, health, children, wealth, and travel. Keep tone spiritual, uplifting, and detailed.

`

const promptOutputFormat = `
Output format: 
{
  "summary": "...",
  "insights": {
    "marriage": "...",
    "career": "...",
    "health": "...",
    "children": "...",
    "wealth": "...",
    "travel": "..."
  }
}`

// imagePlaceholder replaces encoded images in prompts.
const imagePlaceholder = "[omitted base64 for brevity]"

// buildPredictionPrompt renders the prediction prompt. Image data is never
// sent to the model; face and palm readings carry a placeholder instead.
func buildPredictionPrompt(name string, typ domain.PredictionType, data string, birth *domain.BirthDetails) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	fmt.Fprintf(&b, "Name: %s\nType: %s\n", name, typ)

	// Other types get no input line.
	switch typ {
	case domain.PredictionTypeKundli:
		fmt.Fprintf(&b, "Kundli Input: %s\n", data)
	case domain.PredictionTypeFace, domain.PredictionTypePalm:
		fmt.Fprintf(&b, "Image-based interpretation (encoded): %s\n", imagePlaceholder)
	}

	if birth != nil {
		fmt.Fprintf(&b, "Birth Details:\nDate of Birth: %s\nTime: %s\nPlace: %s\n", birth.DOB, birth.Time, birth.Place)
	}

	b.WriteString(promptOutputFormat)
	return b.String()
}

// stripFences removes the first ```json marker (and a newline after it) and
// then the first remaining ``` marker.
func stripFences(raw string) string {
	if i := strings.Index(raw, "```json"); i >= 0 {
		rest := strings.TrimPrefix(raw[i+len("```json"):], "\n")
		raw = raw[:i] + rest
	}
	if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[:i] + raw[i+3:]
	}
	return strings.TrimSpace(raw)
}

// parsePredictionText decodes model output. Text that is not a JSON object
// with a string summary becomes the summary itself, with no insights.
func parsePredictionText(raw string) domain.PredictionData {
	cleaned := stripFences(raw)

	var data domain.PredictionData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return domain.PredictionData{Summary: cleaned, Insights: json.RawMessage("{}")}
	}
	if len(data.Insights) == 0 || string(data.Insights) == "null" {
		data.Insights = json.RawMessage("{}")
	}
	return data
}
