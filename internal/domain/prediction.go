// Package domain contains core business types and interfaces.
//
// This file defines the prediction request and result types.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PredictionType identifies how the user supplied their reading input.
// Values outside the known set are accepted and passed to the model as given.
type PredictionType string

const (
	PredictionTypeKundli PredictionType = "kundli"
	PredictionTypeFace   PredictionType = "face"
	PredictionTypePalm   PredictionType = "palm"
)

// IsValid returns true if the type is a recognized value.
func (t PredictionType) IsValid() bool {
	switch t {
	case PredictionTypeKundli, PredictionTypeFace, PredictionTypePalm:
		return true
	}
	return false
}

// Label returns t for known types and "other" otherwise, for bounded
// metric labels.
func (t PredictionType) Label() string {
	if t.IsValid() {
		return string(t)
	}
	return "other"
}

// IsImage returns true for types whose data is an encoded image.
func (t PredictionType) IsImage() bool {
	return t == PredictionTypeFace || t == PredictionTypePalm
}

// BirthDetails holds the optional birth data a user may provide.
type BirthDetails struct {
	DOB   string `json:"dob"`
	Time  string `json:"time"`
	Place string `json:"place"`
}

// InsightCategories lists the insight keys requested from the model, in display order.
var InsightCategories = []string{"marriage", "career", "health", "children", "wealth", "travel"}

// PredictionData is the part of a prediction produced by the language model.
//
// Insights is kept as raw JSON because models do not always return a flat
// string map. Any other top-level keys the model returns are kept in Extra
// and written back out beside summary and insights.
type PredictionData struct {
	Summary  string
	Insights json.RawMessage
	Extra    map[string]json.RawMessage
}

// UnmarshalJSON accepts any JSON object whose summary, if present, is a string.
func (p *PredictionData) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("prediction data must be a JSON object")
	}

	*p = PredictionData{}
	if raw, ok := fields["summary"]; ok {
		if err := json.Unmarshal(raw, &p.Summary); err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		delete(fields, "summary")
	}
	if raw, ok := fields["insights"]; ok {
		p.Insights = raw
		delete(fields, "insights")
	}
	if len(fields) > 0 {
		p.Extra = fields
	}
	return nil
}

// MarshalJSON writes the extra keys first so summary and insights always win.
func (p PredictionData) MarshalJSON() ([]byte, error) {
	fields, err := p.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (p PredictionData) fields() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(p.Extra)+2)
	for k, v := range p.Extra {
		out[k] = v
	}
	summary, err := json.Marshal(p.Summary)
	if err != nil {
		return nil, err
	}
	out["summary"] = summary
	out["insights"] = p.Insights
	if len(p.Insights) == 0 {
		out["insights"] = json.RawMessage("{}")
	}
	return out, nil
}

// InsightMap decodes Insights into a string map, skipping non-string values.
func (p PredictionData) InsightMap() map[string]string {
	out := make(map[string]string)
	if len(p.Insights) == 0 {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal(p.Insights, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out[k] = s
		}
	}
	return out
}

// Nakshatra is one lunar mansion record from the static table.
type Nakshatra struct {
	Name     string `json:"name"`
	Ruler    string `json:"ruler"`
	Element  string `json:"element"`
	LuckyGem string `json:"lucky_gem"`
}

// MuhuratTimes holds the fixed auspicious windows.
type MuhuratTimes struct {
	Abhijit string `json:"abhijit_muhurat"`
	Brahma  string `json:"brahma_muhurat"`
	Vijaya  string `json:"vijaya_muhurat"`
	Godhuli string `json:"godhuli_muhurat"`
}

// PremiumFeatures is merged into predictions for premium users with birth details.
type PremiumFeatures struct {
	LifePathNumber  int          `json:"life_path_number"`
	LifePathSummary string       `json:"life_path_summary"`
	Nakshatra       string       `json:"nakshatra"`
	NakshatraRuler  string       `json:"nakshatra_ruler"`
	LuckyGem        string       `json:"lucky_gem"`
	MuhuratTimes    MuhuratTimes `json:"muhurat_times"`
}

// PredictionResult is the merged response returned to callers of /predict.
type PredictionResult struct {
	PredictionData
	PredictionMeta
}

// PredictionMeta holds the fields added to the model output.
type PredictionMeta struct {
	TipOfTheDay     string           `json:"tip_of_the_day"`
	PredictionID    string           `json:"prediction_id"`
	Timestamp       string           `json:"timestamp"`
	Plan            Plan             `json:"plan"`
	PremiumFeatures *PremiumFeatures `json:"premium_features,omitempty"`
	QuotaRemaining  *int             `json:"quota_remaining,omitempty"`
}

// MarshalJSON flattens the model output and the added fields into one
// object. Added fields replace model keys of the same name.
func (r PredictionResult) MarshalJSON() ([]byte, error) {
	out, err := r.PredictionData.fields()
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(r.PredictionMeta)
	if err != nil {
		return nil, err
	}
	var metaFields map[string]json.RawMessage
	if err := json.Unmarshal(meta, &metaFields); err != nil {
		return nil, err
	}
	for k, v := range metaFields {
		out[k] = v
	}
	return json.Marshal(out)
}

// Prediction is a persisted prediction document.
type Prediction struct {
	ID             string
	UserEmail      string
	Name           string
	Type           PredictionType
	BirthDetails   *BirthDetails
	PredictionData PredictionData
	AdditionalData json.RawMessage
	Highlights     []string
	Plan           Plan
	IsFeatured     bool
	CreatedAt      time.Time
}

// PremiumFeatures decodes the premium block stored in AdditionalData, if any.
func (p *Prediction) PremiumFeatures() *PremiumFeatures {
	if len(p.AdditionalData) == 0 {
		return nil
	}
	var extra struct {
		PremiumFeatures *PremiumFeatures `json:"premium_features"`
	}
	if err := json.Unmarshal(p.AdditionalData, &extra); err != nil {
		return nil
	}
	return extra.PremiumFeatures
}

// PredictionFilter narrows prediction listings.
type PredictionFilter struct {
	UserEmail    string
	FeaturedOnly bool
	Limit        int
}
