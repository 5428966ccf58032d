// Package report renders prediction artifacts: the downloadable PDF report
// and the shareable SVG meme.
//
// Both renderers implement Generator so the job handlers can treat them alike.
package report

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator renders one artifact format.
type Generator interface {
	// Generate renders data and writes it to w.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error)

	// Format returns the output format of this generator.
	Format() domain.ArtifactFormat
}

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors is the palette used in rendered reports.
var BrandColors = struct {
	Indigo    string // Headings
	Saffron   string // Accent rules
	TextDark  string // Body text
	TextMuted string // Footer text
	Border    string // Dividers
}{
	Indigo:    "#2E1A47",
	Saffron:   "#F4A300",
	TextDark:  "#1F2937",
	TextMuted: "#6B7280",
	Border:    "#E5E7EB",
}

// =============================================================================
// Helpers
// =============================================================================

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	return hexByte(hex[0:2]), hexByte(hex[2:4]), hexByte(hex[4:6])
}

func hexByte(s string) int {
	val := 0
	for _, c := range s {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// CategoryTitle turns an insight key such as "career" into a heading.
func CategoryTitle(key string) string {
	return cases.Title(language.English).String(key)
}

// FormatDateTime formats a timestamp for the report footer.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("January 2, 2006 15:04 UTC")
}

// ShortID returns the first eight characters of id.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// orderedInsights returns the non-empty insight keys of m. Known categories
// come first in display order, followed by any extras sorted by name.
func orderedInsights(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range domain.InsightCategories {
		if m[k] != "" {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k, v := range m {
		if !seen[k] && v != "" {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
