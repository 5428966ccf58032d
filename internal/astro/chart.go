package astro

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// Chart is the birth chart returned by the astro-chart endpoint.
type Chart struct {
	Houses             []string           `json:"houses"`
	PlanetaryPositions map[string]float64 `json:"planetaryPositions"`
	SVGData            string             `json:"svgData"`
}

// ChartGenerator renders placeholder birth charts. Positions are spread 40
// degrees apart with up to 30 degrees of jitter; no ephemeris is consulted.
type ChartGenerator struct {
	// Jitter returns a value in [0, 1). Defaults to rand.Float64.
	Jitter func() float64
}

// NewChartGenerator creates a generator using the default random source.
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{Jitter: rand.Float64}
}

// Generate builds a chart. Birth details do not influence the result.
func (g *ChartGenerator) Generate() Chart {
	jitter := g.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}

	positions := make(map[string]float64, len(Planets))
	for i, planet := range Planets {
		positions[planet] = math.Mod(float64(i*40)+jitter()*30, 360)
	}

	houses := make([]string, len(Houses))
	copy(houses, Houses[:])

	return Chart{
		Houses:             houses,
		PlanetaryPositions: positions,
		SVGData:            renderChartSVG(positions),
	}
}

var planetColors = map[string]string{
	"Sun":     "#FF6B35",
	"Moon":    "#4A90E2",
	"Mars":    "#D0021B",
	"Mercury": "#7ED321",
	"Jupiter": "#F5A623",
	"Venus":   "#BD10E0",
	"Saturn":  "#4A4A4A",
	"Rahu":    "#8B572A",
	"Ketu":    "#9B9B9B",
}

const chartFrame = `<svg width="400" height="400" viewBox="0 0 400 400" xmlns="http://www.w3.org/2000/svg">
  <rect width="400" height="400" fill="#f8f9fa" stroke="#333" stroke-width="2"/>
  <line x1="200" y1="0" x2="200" y2="400" stroke="#666" stroke-width="1"/>
  <line x1="0" y1="200" x2="400" y2="200" stroke="#666" stroke-width="1"/>
  <line x1="58" y1="58" x2="342" y2="342" stroke="#666" stroke-width="1"/>
  <line x1="342" y1="58" x2="58" y2="342" stroke="#666" stroke-width="1"/>
  <text x="300" y="100" font-family="Arial" font-size="14" text-anchor="middle">1</text>
  <text x="300" y="300" font-family="Arial" font-size="14" text-anchor="middle">2</text>
  <text x="100" y="300" font-family="Arial" font-size="14" text-anchor="middle">3</text>
  <text x="100" y="100" font-family="Arial" font-size="14" text-anchor="middle">4</text>
`

// renderChartSVG draws the fixed chart frame with one glyph per planet on a
// circle, placed at the planet's longitude.
func renderChartSVG(positions map[string]float64) string {
	var b strings.Builder
	b.WriteString(chartFrame)
	for _, planet := range Planets {
		deg, ok := positions[planet]
		if !ok {
			continue
		}
		rad := deg * math.Pi / 180
		cx := 200 + 150*math.Cos(rad)
		cy := 200 - 150*math.Sin(rad)
		fmt.Fprintf(&b, "  <circle cx=\"%.0f\" cy=\"%.0f\" r=\"8\" fill=\"%s\"/>\n", cx, cy, planetColors[planet])
		fmt.Fprintf(&b, "  <text x=\"%.0f\" y=\"%.0f\" font-family=\"Arial\" font-size=\"10\" text-anchor=\"middle\" fill=\"white\">%s</text>\n", cx, cy+5, planet[:2])
	}
	b.WriteString(`  <text x="200" y="380" font-family="Arial" font-size="12" text-anchor="middle">Birth Chart</text>
</svg>`)
	return b.String()
}
