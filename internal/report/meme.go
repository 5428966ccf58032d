package report

import (
	"context"
	"io"

	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/domain"
)

// MemeGenerator renders the 800x600 shareable prediction card as SVG.
type MemeGenerator struct{}

// NewMemeGenerator creates a new MemeGenerator.
func NewMemeGenerator() *MemeGenerator {
	return &MemeGenerator{}
}

// Format returns the output format of this generator.
func (g *MemeGenerator) Format() domain.ArtifactFormat {
	return domain.ArtifactFormatSVG
}

// Render returns the SVG document for data. The theme emoji is picked from
// the summary text.
func (g *MemeGenerator) Render(data *domain.ReportData) string {
	return astro.MemeSVG(data.Name, data.Summary, astro.DominantTheme(data.Summary))
}

// Generate writes the SVG document to w.
func (g *MemeGenerator) Generate(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, g.Render(data))
	return int64(n), err
}
