// Package domain contains core business types and interfaces.
//
// This file defines the data structures for rendering downloadable
// astrological reports and shareable memes.
package domain

import (
	"time"
)

// =============================================================================
// Artifact Format
// =============================================================================

// ArtifactFormat represents the output format of a generated artifact.
type ArtifactFormat string

const (
	// ArtifactFormatPDF is a downloadable report.
	ArtifactFormatPDF ArtifactFormat = "pdf"

	// ArtifactFormatSVG is a shareable meme image.
	ArtifactFormatSVG ArtifactFormat = "svg"
)

// String returns the string representation of the format.
func (f ArtifactFormat) String() string {
	return string(f)
}

// IsValid returns true if the format is a recognized value.
func (f ArtifactFormat) IsValid() bool {
	switch f {
	case ArtifactFormatPDF, ArtifactFormatSVG:
		return true
	}
	return false
}

// ContentType returns the MIME content type for the format.
func (f ArtifactFormat) ContentType() string {
	switch f {
	case ArtifactFormatPDF:
		return "application/pdf"
	case ArtifactFormatSVG:
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the file extension for the format.
func (f ArtifactFormat) FileExtension() string {
	return string(f)
}

// =============================================================================
// Report Data Aggregate (for generation)
// =============================================================================

// ReportData aggregates everything needed to render a prediction report.
// It is populated by the job handler before being passed to generators.
type ReportData struct {
	ReportID     string
	PredictionID string
	Name         string
	BirthDetails *BirthDetails

	Summary  string
	Insights map[string]string

	// Premium only
	Nakshatra       *Nakshatra
	LifePathSummary string

	GeneratedAt time.Time
}

// HasBirthDetails returns true if any birth detail is available.
func (d *ReportData) HasBirthDetails() bool {
	return d.BirthDetails != nil &&
		(d.BirthDetails.DOB != "" || d.BirthDetails.Time != "" || d.BirthDetails.Place != "")
}

// HasPremiumInsights returns true if the report carries premium content.
func (d *ReportData) HasPremiumInsights() bool {
	return d.Nakshatra != nil || d.LifePathSummary != ""
}
